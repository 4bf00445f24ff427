package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/rbac"
)

const bcryptCost = 12

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // student (default) or parent
}

type userResp struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// POST /users
func CreateUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Role == "" {
			req.Role = rbac.RoleStudent
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}
		if req.Role != rbac.RoleStudent && req.Role != rbac.RoleParent {
			http.Error(w, "invalid role: "+req.Role, http.StatusBadRequest)
			return
		}

		err := db.QueryRowContext(r.Context(), `SELECT 1 FROM users WHERE username=$1`, req.Username).Scan(new(int))
		switch {
		case err == nil:
			http.Error(w, "username taken", http.StatusConflict)
			return
		case !errors.Is(err, sql.ErrNoRows):
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u := userResp{ID: uuid.NewString(), Username: req.Username, Role: req.Role}
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
			u.ID, u.Username, string(hash), u.Role, time.Now().Unix())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusCreated, u)
	}
}
