package crawler

import (
	"testing"

	"landseek/models"
)

func TestPlanToggles_SymmetricDifference(t *testing.T) {
	defaults := []string{"매매", "전세"}
	requested := []string{"전세", "월세"}

	plan := PlanToggles(defaults, requested)

	if len(plan.Off) != 1 || plan.Off[0] != "매매" {
		t.Fatalf("off = %v, want [매매]", plan.Off)
	}
	if len(plan.On) != 1 || plan.On[0] != "월세" {
		t.Fatalf("on = %v, want [월세]", plan.On)
	}
}

func TestPlanToggles_RequestedEqualsDefaults(t *testing.T) {
	plan := PlanToggles(DefaultTransactionTypes, DefaultTransactionTypes)
	if len(plan.Off) != 0 || len(plan.On) != 0 {
		t.Fatalf("expected no actions, got off=%v on=%v", plan.Off, plan.On)
	}
}

// Applying the same filter twice in direct succession must not produce a
// second round of actions for items already handled: the plan for a given
// (defaults, requested) pair never touches the intersection.
func TestPlanToggles_IntersectionUntouched(t *testing.T) {
	defaults := []string{"아파트", "아파트분양권", "재건축"}
	requested := []string{"아파트", "오피스텔"}

	plan := PlanToggles(defaults, requested)

	for _, off := range plan.Off {
		if contains(requested, off) {
			t.Fatalf("toggled off a requested item: %s", off)
		}
	}
	for _, on := range plan.On {
		if contains(defaults, on) {
			t.Fatalf("toggled on a default item: %s", on)
		}
	}
	if contains(plan.Off, "아파트") || contains(plan.On, "아파트") {
		t.Fatalf("intersection item received an action: %+v", plan)
	}
}

func TestAreaBucketLabels_CompleteAndInjective(t *testing.T) {
	seen := make(map[string]string)
	for _, bucket := range models.AreaBuckets {
		label, ok := AreaBucketLabel(bucket)
		if !ok {
			t.Fatalf("bucket %q has no label", bucket)
		}
		if prev, dup := seen[label]; dup {
			t.Fatalf("label %q maps from both %q and %q", label, prev, bucket)
		}
		seen[label] = bucket
	}
	if len(seen) != 8 {
		t.Fatalf("expected 8 labels, got %d", len(seen))
	}
}

func TestAreaBucketLabel_Unknown(t *testing.T) {
	if _, ok := AreaBucketLabel("80평대"); ok {
		t.Fatalf("unexpected label for unknown bucket")
	}
}
