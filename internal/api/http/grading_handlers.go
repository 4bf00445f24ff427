package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	authmw "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/auth/middleware"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/history"
)

type gradeReq struct {
	// PageNumber is the photographed page's position in the workbook; used
	// only for problems without a printed page.
	PageNumber int                       `json:"pageNumber"`
	Problems   []grading.DetectedProblem `json:"problems"`
}

type gradeResp struct {
	Results []grading.MatchResult `json:"results"`
	Summary grading.Summary       `json:"summary"`
}

// Grader bundles what the grading endpoints share.
type Grader struct {
	Resolver *grading.Resolver
	History  history.Repo
	Log      *zap.Logger
}

// POST /workbooks/{workbookID}/grade
func GradeHandler(store answerkey.Store, g Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workbookID := strings.TrimSpace(chi.URLParam(r, "workbookID"))
		var req gradeReq
		if !decodeValid(w, r, "grade_request.json", &req) {
			return
		}

		records, err := store.ListRecords(r.Context(), workbookID)
		if errors.Is(err, answerkey.ErrNotFound) {
			http.Error(w, "workbook not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "answer key: "+err.Error(), http.StatusInternalServerError)
			return
		}

		results, sum := g.Resolver.ResolveAll(req.Problems, answerkey.Keys(records), req.PageNumber)
		g.record(r.Context(), workbookID, req.Problems, results)
		respondJSON(w, http.StatusOK, gradeResp{Results: results, Summary: sum})
	}
}

// POST /grade/quick
// Single-photo grading without an answer key: the model's verdicts stand
// except where the override rule applies.
func QuickGradeHandler(g Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeReq
		if !decodeValid(w, r, "grade_request.json", &req) {
			return
		}
		results, sum := g.Resolver.OverrideAll(req.Problems)
		g.record(r.Context(), "", req.Problems, results)
		respondJSON(w, http.StatusOK, gradeResp{Results: results, Summary: sum})
	}
}

// record appends one history entry per result. A failed write is logged and
// does not fail the request; the child still gets their results.
func (g Grader) record(ctx context.Context, workbookID string, ds []grading.DetectedProblem, results []grading.MatchResult) {
	if g.History == nil {
		return
	}
	user := authmw.SubjectFromContext(ctx)
	for i, res := range results {
		if _, err := g.History.Append(ctx, history.FromResult(user, workbookID, ds[i], res)); err != nil {
			g.logger().Warn("history append failed",
				zap.String("user", user),
				zap.String("workbook_id", workbookID),
				zap.String("problem_number", ds[i].ProblemNumber),
				zap.Error(err))
		}
	}
}

func (g Grader) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}
