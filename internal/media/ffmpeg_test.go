package media

import "testing"

func TestGapPlan(t *testing.T) {
	segments := []Segment{
		{Path: "0.mp3", Speaker: "Alex"},
		{Path: "1.mp3", Speaker: "Alex"},
		{Path: "2.mp3", Speaker: "Sam"},
		{Path: "3.mp3", Speaker: "Alex"},
		{Path: "4.mp3", Speaker: "Alex"},
	}

	want := []Gap{GapNone, GapShort, GapLong, GapLong, GapShort}
	got := GapPlan(segments)

	if len(got) != len(want) {
		t.Fatalf("expected %d gaps, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("gap %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestGapPlanEmpty(t *testing.T) {
	if got := GapPlan(nil); len(got) != 0 {
		t.Errorf("expected no gaps for empty input, got %d", len(got))
	}
}

func TestGapPlanSingle(t *testing.T) {
	got := GapPlan([]Segment{{Path: "only.mp3", Speaker: "Sam"}})
	if len(got) != 1 || got[0] != GapNone {
		t.Errorf("expected [GapNone], got %v", got)
	}
}

func TestConcatPath(t *testing.T) {
	if got := concatPath(`tmp\job\seg.mp3`); got != "tmp/job/seg.mp3" {
		t.Errorf("concatPath = %q", got)
	}
}
