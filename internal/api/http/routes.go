package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	authmw "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/auth/middleware"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/history"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/logging"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/rbac"
)

type Deps struct {
	DB       *sql.DB
	Answers  answerkey.Store
	History  history.Repo
	Resolver *grading.Resolver
	Auth     *authmw.AuthService
	Admin    authmw.Admin
	Log      *zap.Logger

	EnableLocalAuth bool
	// AllowClaimFallback trusts the token's role for subjects missing from
	// the users table (offline mode).
	AllowClaimFallback bool
	CORSOrigins        []string
	RequestTimeout     time.Duration
}

// NewRouter mounts every route behind the shared middleware chain.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	g := Grader{Resolver: d.Resolver, History: d.History, Log: d.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.DB, d.Admin))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		pr.Use(authmw.AttachRoleFromDB(d.DB, d.AllowClaimFallback))

		pr.With(rbac.Require("users:create")).
			Post("/users", CreateUserHandler(d.DB))

		pr.With(rbac.Require("answerkey:write")).
			Put("/workbooks/{workbookID}/answers", PutAnswersHandler(d.Answers))
		pr.With(rbac.Require("answerkey:view")).
			Get("/workbooks/{workbookID}/answers", GetAnswersHandler(d.Answers))

		pr.With(rbac.Require("grade:submit")).
			Post("/workbooks/{workbookID}/grade", GradeHandler(d.Answers, g))
		pr.With(rbac.Require("grade:submit")).
			Post("/grade/quick", QuickGradeHandler(g))

		pr.With(rbac.RequireAny("history:view-own", "history:view-all")).
			Get("/history", ListHistoryHandler(d.History))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
