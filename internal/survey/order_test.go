package survey

import (
	"testing"

	"donkeymap/pkg/types"
)

func ids(questions []types.Question) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func TestMoveQuestion(t *testing.T) {
	base := []types.Question{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	testCases := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"down", 0, 2, []string{"b", "c", "a", "d"}},
		{"up", 3, 1, []string{"a", "d", "b", "c"}},
		{"to end", 1, 3, []string{"a", "c", "d", "b"}},
		{"to start", 2, 0, []string{"c", "a", "b", "d"}},
		{"same place", 2, 2, []string{"a", "b", "c", "d"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MoveQuestion(base, tc.from, tc.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			gotIDs := ids(got)
			for i := range tc.want {
				if gotIDs[i] != tc.want[i] {
					t.Fatalf("MoveQuestion(%d, %d) = %v, want %v", tc.from, tc.to, gotIDs, tc.want)
				}
			}
		})
	}

	if ids(base)[0] != "a" || ids(base)[3] != "d" {
		t.Errorf("expected input to be left untouched, got %v", ids(base))
	}
}

func TestMoveQuestionOutOfRange(t *testing.T) {
	base := []types.Question{{ID: "a"}, {ID: "b"}}
	for _, idx := range [][2]int{{-1, 0}, {2, 0}, {0, 2}, {0, -1}} {
		if _, err := MoveQuestion(base, idx[0], idx[1]); err == nil {
			t.Errorf("expected error for move %v", idx)
		}
	}
}

func TestPointsPolicyAward(t *testing.T) {
	p := PointsPolicy{Base: 50, PerQuestion: 5, Max: 100}

	testCases := []struct {
		answered int
		want     int
	}{
		{0, 50},
		{4, 70},
		{10, 100},
		{40, 100},
		{-3, 50},
	}

	for _, tc := range testCases {
		if got := p.Award(tc.answered); got != tc.want {
			t.Errorf("Award(%d) = %d, want %d", tc.answered, got, tc.want)
		}
	}

	if got := (PointsPolicy{Base: 10, PerQuestion: 1}).Award(500); got != 510 {
		t.Errorf("expected no cap when Max is zero, got %d", got)
	}
}
