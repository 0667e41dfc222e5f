package workers

import (
	"strings"
	"testing"
)

func TestParseHTML_DescriptionAndImages(t *testing.T) {
	html := `<html><head>
		<meta property="og:description" content="역세권 도보 5분, 남향 고층">
		<meta property="og:image" content="https://landthumb-phinf.pstatic.net/photo/a.jpg">
	</head><body>
		<div class="detail_photo">
			<img src="https://landthumb-phinf.pstatic.net/photo/b.jpg">
			<img src="https://landthumb-phinf.pstatic.net/photo/a.jpg">
			<img src="data:image/gif;base64,R0lGOD">
		</div>
	</body></html>`

	w := &EnrichmentWorker{}
	data, err := w.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data.Description != "역세권 도보 5분, 남향 고층" {
		t.Errorf("description = %q", data.Description)
	}
	if len(data.ImageURLs) != 2 {
		t.Fatalf("got %d images, want 2 (deduped, no data URIs): %v", len(data.ImageURLs), data.ImageURLs)
	}
}

func TestParseHTML_PrefersInlineDescription(t *testing.T) {
	html := `<html><head>
		<meta property="og:description" content="짧은 요약">
	</head><body>
		<div class="detail_description">전체 설명 텍스트</div>
	</body></html>`

	w := &EnrichmentWorker{}
	data, err := w.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Description != "전체 설명 텍스트" {
		t.Errorf("description = %q", data.Description)
	}
}

func TestGuessExtension(t *testing.T) {
	cases := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://example.com/photo.png", "", ".png"},
		{"https://example.com/photo.jpg?type=m1024", "", ".jpg"},
		{"https://example.com/photo", "image/webp", ".webp"},
		{"https://example.com/photo", "", ".jpg"},
	}

	for _, tc := range cases {
		if got := guessExtension(tc.url, tc.contentType); got != tc.want {
			t.Errorf("guessExtension(%q, %q) = %q, want %q", tc.url, tc.contentType, got, tc.want)
		}
	}
}

func TestIsDelistRedirect(t *testing.T) {
	if !isDelistRedirect("https://fin.land.naver.com/search") {
		t.Errorf("search redirect should mean delisted")
	}
	if isDelistRedirect("https://fin.land.naver.com/articles/2503123456") {
		t.Errorf("article redirect should not mean delisted")
	}
}
