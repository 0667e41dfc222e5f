package crawler

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5억", 500_000_000},
		{"3억5천", 350_000_000},
		{"5000만원", 50_000_000},
		{"", 0},
		{"   ", 0},
		{"1억 2,000", 120_000_000},
		{"5천", 50_000_000},
		{"3000", 30_000_000},
		{"협의", 0},
		{"월세", 0},
	}
	for _, c := range cases {
		if got := ParsePrice(c.in); got != c.want {
			t.Fatalf("ParsePrice(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

// A range keeps only its first segment. This drops the upper bound on
// purpose, for output compatibility with the previous implementation.
func TestParsePrice_RangeKeepsFirstSegment(t *testing.T) {
	if got := ParsePrice("5억 ~ 6억"); got != 500_000_000 {
		t.Fatalf("ParsePrice range = %d, want 500000000", got)
	}
	if got := ParsePrice("3천 ~ 5천"); got != 30_000_000 {
		t.Fatalf("ParsePrice range = %d, want 30000000", got)
	}
}

func TestParseConfirmDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"확인매물 24.03.15.", "2024-03-15"},
		{"확인매물 25.12.01.", "2025-12-01"},
		{"", ""},
		{"확인매물", ""},
		{"확인매물 24.13.40.", ""},
		{"garbage", ""},
	}
	for _, c := range cases {
		if got := ParseConfirmDate(c.in); got != c.want {
			t.Fatalf("ParseConfirmDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseSpec(t *testing.T) {
	spec := ParseSpec("109/84.77㎡, 5/15층, 남향")
	if spec.AreaPyeong != 25.64 {
		t.Fatalf("area = %v, want 25.64", spec.AreaPyeong)
	}
	if spec.FloorInfo != "5/15층" {
		t.Fatalf("floor = %q, want 5/15층", spec.FloorInfo)
	}
	if spec.Direction != "남향" {
		t.Fatalf("direction = %q, want 남향", spec.Direction)
	}
}

func TestParseSpec_Empty(t *testing.T) {
	spec := ParseSpec("")
	if spec.AreaPyeong != 0 || spec.FloorInfo != "" || spec.Direction != "" {
		t.Fatalf("empty spec not zero-valued: %+v", spec)
	}
}

func TestParseSpec_PartialSegments(t *testing.T) {
	spec := ParseSpec("33/28.1㎡, 3층")
	if spec.AreaPyeong != 8.5 {
		t.Fatalf("area = %v, want 8.5", spec.AreaPyeong)
	}
	if spec.FloorInfo != "3층" {
		t.Fatalf("floor = %q, want 3층", spec.FloorInfo)
	}
	if spec.Direction != "" {
		t.Fatalf("direction = %q, want empty", spec.Direction)
	}
}

func TestParseSpec_NoAreaPair(t *testing.T) {
	spec := ParseSpec("단층, 남향")
	if spec.AreaPyeong != 0 {
		t.Fatalf("area = %v, want 0", spec.AreaPyeong)
	}
	if spec.FloorInfo != "남향" {
		t.Fatalf("floor = %q, want 남향", spec.FloorInfo)
	}
}
