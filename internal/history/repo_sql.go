package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
)

type SQLRepo struct{ db *sql.DB }

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) Append(ctx context.Context, e Entry) (Entry, error) {
	if err := validate(e); err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO grading_history
		 (id,user_id,workbook_id,problem_number,student_answer,correct_answer,is_correct,grading_source,matched_record_id,feedback,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.UserID, e.WorkbookID, e.ProblemNumber, e.StudentAnswer, e.CorrectAnswer,
		e.IsCorrect, string(e.GradingSource), e.MatchedRecordID, e.Feedback, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("append history: %w", err)
	}
	return e, nil
}

func (r *SQLRepo) List(ctx context.Context, opts ListOpts) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if opts.WorkbookID != "" {
		args = append(args, opts.WorkbookID)
		where = append(where, fmt.Sprintf("workbook_id=$%d", len(args)))
	}

	q := `SELECT id,user_id,workbook_id,problem_number,student_answer,correct_answer,is_correct,grading_source,matched_record_id,feedback,created_at
		FROM grading_history`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, clampLimit(opts.Limit), offset)
	q += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e   Entry
			src string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.WorkbookID, &e.ProblemNumber, &e.StudentAnswer,
			&e.CorrectAnswer, &e.IsCorrect, &src, &e.MatchedRecordID, &e.Feedback, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.GradingSource = grading.Source(src)
		out = append(out, e)
	}
	return out, rows.Err()
}
