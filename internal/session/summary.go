package session

import "time"

// Summary describes a finished or abandoned session.
type Summary struct {
	ID       string        `json:"id"`
	Duration time.Duration `json:"duration"`
	Planned  int           `json:"planned"`
	Served   int           `json:"served"`
	Correct  int           `json:"correct"`
	Promoted []int         `json:"promoted"`
	Accuracy float64       `json:"accuracy"`
}

// BuildSummary creates a Summary from the session state.
func BuildSummary(state *State, now time.Time) *Summary {
	sum := &Summary{
		ID:       state.ID,
		Duration: now.Sub(state.StartedAt),
		Planned:  len(state.Queue),
		Served:   len(state.Results),
		Promoted: []int{},
	}
	for _, r := range state.Results {
		if r.Correct {
			sum.Correct++
		}
		if r.Resolution != nil && r.Resolution.Promoted {
			sum.Promoted = append(sum.Promoted, r.QuestionID)
		}
	}
	if sum.Served > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Served)
	}
	return sum
}
