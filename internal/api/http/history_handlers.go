package http

import (
	"net/http"
	"strconv"

	authmw "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/auth/middleware"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/history"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/rbac"
)

// GET /history?user=&workbook=&limit=&offset=
// Without history:view-all the caller only sees their own entries.
func ListHistoryHandler(repo history.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := history.ListOpts{
			UserID:     q.Get("user"),
			WorkbookID: q.Get("workbook"),
			Limit:      parseIntDefault(q.Get("limit"), history.DefaultLimit),
			Offset:     parseIntDefault(q.Get("offset"), 0),
		}
		if !rbac.Can(r.Context(), "history:view-all") {
			opts.UserID = authmw.SubjectFromContext(r.Context())
			if opts.UserID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		entries, err := repo.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, entries)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
