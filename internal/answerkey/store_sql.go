package answerkey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore works with both drivers opened by internal/db; its statements use
// only syntax sqlite and postgres share.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutWorkbook(ctx context.Context, wb Workbook, records []Record) (int, error) {
	return s.put(ctx, wb, records, false)
}

// ReplaceWorkbook deletes the old records and inserts the new ones in the
// same transaction.
func (s *SQLStore) ReplaceWorkbook(ctx context.Context, wb Workbook, records []Record) (int, error) {
	return s.put(ctx, wb, records, true)
}

func (s *SQLStore) put(ctx context.Context, wb Workbook, records []Record, replace bool) (int, error) {
	if err := validateAll(wb, records); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO workbooks (id,title,created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`,
		wb.ID, wb.Title, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("upsert workbook: %w", err)
	}
	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM answer_keys WHERE workbook_id=$1`, wb.ID); err != nil {
			return 0, fmt.Errorf("clear answer keys: %w", err)
		}
	}

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		var problemPage sql.NullInt64
		if r.ProblemPageNumber != nil {
			problemPage = sql.NullInt64{Int64: int64(*r.ProblemPageNumber), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO answer_keys
			(workbook_id,id,problem_number,correct_answer,problem_page_number,page_number)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (workbook_id,id) DO UPDATE SET
			  problem_number=EXCLUDED.problem_number,
			  correct_answer=EXCLUDED.correct_answer,
			  problem_page_number=EXCLUDED.problem_page_number,
			  page_number=EXCLUDED.page_number`,
			wb.ID, r.ID, r.ProblemNumber, r.CorrectAnswer, problemPage, r.PageNumber); err != nil {
			return 0, fmt.Errorf("upsert answer key %s: %w", r.ProblemNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *SQLStore) GetWorkbook(ctx context.Context, id string) (Workbook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,created_at FROM workbooks WHERE id=$1`, id)
	var wb Workbook
	if err := row.Scan(&wb.ID, &wb.Title, &wb.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workbook{}, ErrNotFound
		}
		return Workbook{}, err
	}
	return wb, nil
}

// ListRecords returns records in registration order (seq), which an update
// does not change.
func (s *SQLStore) ListRecords(ctx context.Context, workbookID string) ([]Record, error) {
	if _, err := s.GetWorkbook(ctx, workbookID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,problem_number,correct_answer,problem_page_number,page_number
		FROM answer_keys WHERE workbook_id=$1 ORDER BY seq`, workbookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r := Record{WorkbookID: workbookID}
		var problemPage sql.NullInt64
		if err := rows.Scan(&r.ID, &r.ProblemNumber, &r.CorrectAnswer, &problemPage, &r.PageNumber); err != nil {
			return nil, err
		}
		if problemPage.Valid {
			p := int(problemPage.Int64)
			r.ProblemPageNumber = &p
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteWorkbook(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM answer_keys WHERE workbook_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM workbooks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
