package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
)

type putAnswersReq struct {
	Title   string                    `json:"title"`
	Answers []grading.AnswerKeyRecord `json:"answers"`
}

// PUT /workbooks/{workbookID}/answers[?replace=true]
// Upserts records by id; replace=true swaps the workbook's whole key.
func PutAnswersHandler(store answerkey.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workbookID := strings.TrimSpace(chi.URLParam(r, "workbookID"))
		if workbookID == "" {
			http.Error(w, "workbookID required", http.StatusBadRequest)
			return
		}
		var req putAnswersReq
		if !decodeValid(w, r, "answers_request.json", &req) {
			return
		}

		records := make([]answerkey.Record, len(req.Answers))
		for i, a := range req.Answers {
			records[i] = answerkey.Record{WorkbookID: workbookID, AnswerKeyRecord: a}
		}
		wb := answerkey.Workbook{ID: workbookID, Title: req.Title}
		put := store.PutWorkbook
		if r.URL.Query().Get("replace") == "true" {
			put = store.ReplaceWorkbook
		}
		n, err := put(r.Context(), wb, records)
		switch {
		case errors.Is(err, answerkey.ErrInvalidRecord):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, "store answers: "+err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"workbookId": workbookID, "stored": n})
	}
}

// GET /workbooks/{workbookID}/answers
func GetAnswersHandler(store answerkey.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workbookID := strings.TrimSpace(chi.URLParam(r, "workbookID"))
		wb, err := store.GetWorkbook(r.Context(), workbookID)
		if errors.Is(err, answerkey.ErrNotFound) {
			http.Error(w, "workbook not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		records, err := store.ListRecords(r.Context(), workbookID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []answerkey.Record{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"workbook": wb, "answers": records})
	}
}
