package grading

// Summary tallies a batch of verdicts.
type Summary struct {
	Total      int `json:"total"`
	Correct    int `json:"correct"`
	FromKey    int `json:"fromKey"`
	FromAI     int `json:"fromAi"`
	Overridden int `json:"overridden"`
}

// Summarize counts verdicts by outcome and provenance.
func Summarize(results []MatchResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.IsCorrect {
			s.Correct++
		}
		switch r.GradingSource {
		case SourceDB:
			s.FromKey++
		case SourceServerOverride:
			s.Overridden++
		default:
			s.FromAI++
		}
	}
	return s
}

// Score is the fraction of correct answers, 0 for an empty batch.
func (s Summary) Score() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}
