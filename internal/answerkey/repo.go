package answerkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("workbook not found")
	ErrInvalidRecord = errors.New("invalid answer key record")
)

// Store persists workbooks and their answer keys. ListRecords must return
// records in registration order: the matcher breaks ties by input order.
type Store interface {
	// PutWorkbook upserts the workbook and its records by (workbook, record id).
	// Records without an id get a generated one. It returns the stored count.
	PutWorkbook(ctx context.Context, wb Workbook, records []Record) (int, error)
	// ReplaceWorkbook swaps the workbook's whole key for records in one step.
	// On any error the previous key is left untouched.
	ReplaceWorkbook(ctx context.Context, wb Workbook, records []Record) (int, error)
	GetWorkbook(ctx context.Context, id string) (Workbook, error)
	ListRecords(ctx context.Context, workbookID string) ([]Record, error)
	DeleteWorkbook(ctx context.Context, id string) error
}

// Validate checks the fields the matcher relies on.
func Validate(r Record) error {
	if strings.TrimSpace(r.ProblemNumber) == "" {
		return fmt.Errorf("%w: problemNumber required", ErrInvalidRecord)
	}
	if r.PageNumber < 0 {
		return fmt.Errorf("%w: %s: negative pageNumber", ErrInvalidRecord, r.ProblemNumber)
	}
	if r.ProblemPageNumber != nil && *r.ProblemPageNumber < 0 {
		return fmt.Errorf("%w: %s: negative problemPageNumber", ErrInvalidRecord, r.ProblemNumber)
	}
	return nil
}

func validateAll(wb Workbook, records []Record) error {
	if strings.TrimSpace(wb.ID) == "" {
		return fmt.Errorf("%w: workbook id required", ErrInvalidRecord)
	}
	for _, r := range records {
		if err := Validate(r); err != nil {
			return err
		}
	}
	return nil
}
