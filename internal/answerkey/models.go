package answerkey

import "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"

// Workbook groups the answer key of one printed workbook.
type Workbook struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title,omitempty" yaml:"title"`
	CreatedAt int64  `json:"createdAt,omitempty" yaml:"-"`
}

// Record is a stored answer key entry. Its embedded fields are exactly what
// the grading engine consumes.
type Record struct {
	WorkbookID string `json:"workbookId,omitempty"`
	grading.AnswerKeyRecord
}

// Keys snapshots records into the engine's input form, keeping their order.
func Keys(records []Record) []grading.AnswerKeyRecord {
	out := make([]grading.AnswerKeyRecord, len(records))
	for i, r := range records {
		out[i] = r.AnswerKeyRecord
	}
	return out
}
