package http_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	api "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/api/http"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	authmw "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/auth/middleware"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/db"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/history"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/rbac"
)

type env struct {
	h      http.Handler
	parent string
	kid    string
	kid2   string
}

func addUser(t *testing.T, conn *sql.DB, id, username, role, pw string) {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO users (id,username,role,password_hash,created_at) VALUES ($1,$2,$3,$4,$5)`,
		id, username, role, string(h), time.Now().Unix())
	require.NoError(t, err)
}

func newEnv(t *testing.T) env {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	addUser(t, conn, "u-parent", "mama", rbac.RoleParent, "pw-parent")
	addUser(t, conn, "u-kid", "taro", rbac.RoleStudent, "pw-kid")
	addUser(t, conn, "u-kid2", "jiro", rbac.RoleStudent, "pw-kid2")

	log := zaptest.NewLogger(t)
	h := api.NewRouter(api.Deps{
		DB:              conn,
		Answers:         answerkey.NewSQLStore(conn),
		History:         history.NewSQLRepo(conn),
		Resolver:        grading.NewResolver(grading.WithLogger(log)),
		Auth:            authmw.NewAuthService("test-secret", time.Hour),
		Log:             log,
		EnableLocalAuth: true,
		CORSOrigins:     []string{"http://localhost:3000"},
	})

	e := env{h: h}
	e.parent = e.login(t, "mama", "pw-parent")
	e.kid = e.login(t, "taro", "pw-kid")
	e.kid2 = e.login(t, "jiro", "pw-kid2")
	return e
}

func (e env) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e env) login(t *testing.T, user, pw string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", "", `{"username":"`+user+`","password":"`+pw+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out["access_token"]
}

const answersBody = `{
  "title": "算数 5年",
  "answers": [
    {"id": "p6-1",  "problemNumber": "1(1)", "correctAnswer": "X",   "problemPageNumber": 6,  "pageNumber": 1},
    {"id": "p40-1", "problemNumber": "1(1)", "correctAnswer": "40",  "problemPageNumber": 40, "pageNumber": 3},
    {"id": "p40-2", "problemNumber": "1(2)", "correctAnswer": "3.5", "problemPageNumber": 40, "pageNumber": 3}
  ]
}`

type gradeOut struct {
	Results []grading.MatchResult `json:"results"`
	Summary grading.Summary       `json:"summary"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestAnswerKeyRoutes(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPut, "/workbooks/math5/answers", e.kid, answersBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPut, "/workbooks/math5/answers", e.parent, answersBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["stored"])

	rec = e.do(t, http.MethodGet, "/workbooks/math5/answers", e.kid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Workbook answerkey.Workbook `json:"workbook"`
		Answers  []answerkey.Record `json:"answers"`
	}](t, rec)
	assert.Equal(t, "算数 5年", got.Workbook.Title)
	require.Len(t, got.Answers, 3)
	assert.Equal(t, "p6-1", got.Answers[0].ID)

	rec = e.do(t, http.MethodPut, "/workbooks/math5/answers?replace=true", e.parent,
		`{"answers":[{"problemNumber":"(1)","correctAnswer":"7"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodGet, "/workbooks/math5/answers", e.parent, "")
	got = decode[struct {
		Workbook answerkey.Workbook `json:"workbook"`
		Answers  []answerkey.Record `json:"answers"`
	}](t, rec)
	assert.Len(t, got.Answers, 1)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/workbooks/none/answers", e.kid, "").Code)
	assert.Equal(t, http.StatusBadRequest,
		e.do(t, http.MethodPut, "/workbooks/math5/answers", e.parent, `{"answers":[{"problemNumber":""}]}`).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/workbooks/math5/answers", "", "").Code)
}

func TestRejectedReplaceKeepsAnswerKey(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/workbooks/math5/answers", e.parent, answersBody).Code)

	rec := e.do(t, http.MethodPut, "/workbooks/math5/answers?replace=true", e.parent,
		`{"answers":[{"problemNumber":"   ","correctAnswer":"x"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/workbooks/math5/answers", e.kid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Answers []answerkey.Record `json:"answers"`
	}](t, rec)
	assert.Len(t, got.Answers, 3)

	body := `{"problems":[{"problemNumber":"1(1)","printedPageNumber":41,"studentAnswer":"40"}]}`
	rec = e.do(t, http.MethodPost, "/workbooks/math5/grade", e.kid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[gradeOut](t, rec)
	assert.Equal(t, grading.SourceDB, out.Results[0].GradingSource)
}

func TestGradeRoute(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/workbooks/math5/answers", e.parent, answersBody).Code)

	body := `{"pageNumber": 12, "problems": [
	  {"problemNumber": "1（1）", "printedPageNumber": 41, "studentAnswer": "40度", "aiIsCorrect": false, "aiCorrectAnswer": "45"},
	  {"problemNumber": "1(2)", "printedPageNumber": 41, "studentAnswer": "3.50"},
	  {"problemNumber": "9", "printedPageNumber": 41, "studentAnswer": "x", "aiIsCorrect": true, "aiFeedback": "いいね"}
	]}`
	rec := e.do(t, http.MethodPost, "/workbooks/math5/grade", e.kid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[gradeOut](t, rec)

	require.Len(t, out.Results, 3)
	require.NotNil(t, out.Results[0].MatchedAnswer)
	assert.Equal(t, "p40-1", out.Results[0].MatchedAnswer.ID)
	assert.True(t, out.Results[0].IsCorrect)
	assert.Equal(t, grading.SourceDB, out.Results[0].GradingSource)
	assert.True(t, out.Results[1].IsCorrect)
	assert.Equal(t, grading.SourceAI, out.Results[2].GradingSource)
	assert.Equal(t, "いいね", out.Results[2].Feedback)
	assert.Equal(t, grading.Summary{Total: 3, Correct: 3, FromKey: 2, FromAI: 1}, out.Summary)

	rec = e.do(t, http.MethodGet, "/history", e.kid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]history.Entry](t, rec)
	require.Len(t, entries, 3)
	assert.Equal(t, "9", entries[0].ProblemNumber)
	assert.Equal(t, "u-kid", entries[0].UserID)
	assert.Equal(t, "p40-1", entries[2].MatchedRecordID)
	assert.Equal(t, "math5", entries[2].WorkbookID)
}

func TestGradeRouteErrors(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/workbooks/math5/answers", e.parent, answersBody).Code)

	cases := map[string]struct {
		path, body string
		want       int
	}{
		"unknown workbook": {"/workbooks/none/grade", `{"problems":[]}`, http.StatusNotFound},
		"missing problems": {"/workbooks/math5/grade", `{"pageNumber":1}`, http.StatusBadRequest},
		"negative page": {"/workbooks/math5/grade",
			`{"problems":[{"problemNumber":"1","printedPageNumber":-1,"studentAnswer":"x"}]}`, http.StatusBadRequest},
		"missing answer": {"/workbooks/math5/grade", `{"problems":[{"problemNumber":"1"}]}`, http.StatusBadRequest},
		"bad json":       {"/workbooks/math5/grade", `{"problems":`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, tc.path, e.kid, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestQuickGradeRoute(t *testing.T) {
	e := newEnv(t)
	body := `{"problems": [
	  {"problemNumber": "(1)", "studentAnswer": "40°", "aiIsCorrect": false, "aiCorrectAnswer": "40", "aiFeedback": "ちがうよ", "aiExplanation": "角度の和"},
	  {"problemNumber": "(2)", "studentAnswer": "12", "aiIsCorrect": false, "aiCorrectAnswer": "21", "aiFeedback": "ちがうよ"}
	]}`
	rec := e.do(t, http.MethodPost, "/grade/quick", e.kid, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[gradeOut](t, rec)

	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].IsCorrect)
	assert.Equal(t, grading.SourceServerOverride, out.Results[0].GradingSource)
	assert.Equal(t, grading.DefaultTemplates().CorrectFeedback, out.Results[0].Feedback)
	assert.Equal(t, "角度の和", out.Results[0].Explanation)
	assert.False(t, out.Results[1].IsCorrect)
	assert.Equal(t, "ちがうよ", out.Results[1].Feedback)
	assert.Equal(t, 1, out.Summary.Overridden)
}

func TestHistoryScoping(t *testing.T) {
	e := newEnv(t)
	quick := `{"problems":[{"problemNumber":"(1)","studentAnswer":"1","aiIsCorrect":true}]}`
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/grade/quick", e.kid, quick).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/grade/quick", e.kid2, quick).Code)

	own := decode[[]history.Entry](t, e.do(t, http.MethodGet, "/history?user=u-kid2", e.kid, ""))
	require.Len(t, own, 1)
	assert.Equal(t, "u-kid", own[0].UserID)

	all := decode[[]history.Entry](t, e.do(t, http.MethodGet, "/history", e.parent, ""))
	assert.Len(t, all, 2)

	one := decode[[]history.Entry](t, e.do(t, http.MethodGet, "/history?user=u-kid2", e.parent, ""))
	require.Len(t, one, 1)
	assert.Equal(t, "u-kid2", one[0].UserID)
}

func TestCreateUserRoute(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/users", e.parent, `{"username":"saburo","password":"pw3"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	u := decode[map[string]string](t, rec)
	assert.Equal(t, rbac.RoleStudent, u["role"])
	assert.NotEmpty(t, u["id"])

	assert.NotEmpty(t, e.login(t, "saburo", "pw3"))

	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/users", e.parent, `{"username":"saburo","password":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/users", e.parent, `{"username":"x","password":"x","role":"admin"}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/users", e.parent, `{"username":"x"}`).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/users", e.kid, `{"username":"y","password":"y"}`).Code)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/readyz", "", "").Code)
}
