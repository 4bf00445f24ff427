package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
)

var ErrInvalidEntry = errors.New("invalid history entry")

// Entry is one graded problem as shown in a child's history.
type Entry struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	WorkbookID      string         `json:"workbookId,omitempty"`
	ProblemNumber   string         `json:"problemNumber"`
	StudentAnswer   string         `json:"studentAnswer"`
	CorrectAnswer   string         `json:"correctAnswer"`
	IsCorrect       bool           `json:"isCorrect"`
	GradingSource   grading.Source `json:"gradingSource"`
	MatchedRecordID string         `json:"matchedRecordId,omitempty"`
	Feedback        string         `json:"feedback"`
	CreatedAt       int64          `json:"createdAt"`
}

// ListOpts filters List. Zero values mean no filter; Limit <= 0 uses
// DefaultLimit.
type ListOpts struct {
	UserID     string
	WorkbookID string
	Limit      int
	Offset     int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Repo interface {
	// Append stores e, filling ID and CreatedAt, and returns what was stored.
	Append(ctx context.Context, e Entry) (Entry, error)
	// List returns entries newest first.
	List(ctx context.Context, opts ListOpts) ([]Entry, error)
}

// FromResult records the verdict for d. workbookID is empty for quick grading.
func FromResult(userID, workbookID string, d grading.DetectedProblem, res grading.MatchResult) Entry {
	e := Entry{
		UserID:        userID,
		WorkbookID:    workbookID,
		ProblemNumber: d.ProblemNumber,
		StudentAnswer: d.StudentAnswer,
		CorrectAnswer: res.CorrectAnswer,
		IsCorrect:     res.IsCorrect,
		GradingSource: res.GradingSource,
		Feedback:      res.Feedback,
	}
	if res.MatchedAnswer != nil {
		e.MatchedRecordID = res.MatchedAnswer.ID
	}
	return e
}

func validate(e Entry) error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: userId required", ErrInvalidEntry)
	}
	if e.GradingSource == "" {
		return fmt.Errorf("%w: gradingSource required", ErrInvalidEntry)
	}
	return nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
