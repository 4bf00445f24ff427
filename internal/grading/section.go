package grading

// AnswerKeyRecord is one locally registered ground-truth answer.
type AnswerKeyRecord struct {
	ID            string `json:"id,omitempty"`
	ProblemNumber string `json:"problemNumber"`
	CorrectAnswer string `json:"correctAnswer"`
	// ProblemPageNumber is the printed page the problem sits on; nil for
	// records registered before printed pages were captured.
	ProblemPageNumber *int `json:"problemPageNumber,omitempty"`
	// PageNumber is the page of the source document the record came from.
	PageNumber int `json:"pageNumber"`
}

// Section is the group of records sharing the section start page closest to
// (and not after) the reference page. Page is nil when no record qualifies.
type Section struct {
	Page    *int
	Records []AnswerKeyRecord
}

// ReferencePage picks the page used for section scoping and tie-breaks: the
// printed page when the model saw one, the document page otherwise.
func ReferencePage(printed *int, fallback int) int {
	if printed != nil {
		return *printed
	}
	return fallback
}

// ResolveSection narrows records to the section that most plausibly holds a
// problem seen on refPage. Record order is preserved.
func ResolveSection(records []AnswerKeyRecord, refPage int) Section {
	var start *int
	for i := range records {
		p := records[i].ProblemPageNumber
		if p == nil || *p > refPage {
			continue
		}
		if start == nil || *p > *start {
			v := *p
			start = &v
		}
	}
	if start == nil {
		return Section{}
	}

	sec := Section{Page: start}
	for _, rec := range records {
		if rec.ProblemPageNumber != nil && *rec.ProblemPageNumber == *start {
			sec.Records = append(sec.Records, rec)
		}
	}
	return sec
}
