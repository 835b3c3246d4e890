package survey

import (
	"fmt"

	"donkeymap/pkg/types"
)

// MoveQuestion returns a copy of questions with the entry at from moved to
// index to, shifting the entries in between.
func MoveQuestion(questions []types.Question, from, to int) ([]types.Question, error) {
	n := len(questions)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("from index %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("to index %d out of range [0,%d)", to, n)
	}

	out := make([]types.Question, 0, n)
	moved := questions[from]
	for i, q := range questions {
		if i == from {
			continue
		}
		out = append(out, q)
	}

	out = append(out, types.Question{})
	copy(out[to+1:], out[to:])
	out[to] = moved

	return out, nil
}
