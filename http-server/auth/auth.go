// Package auth exposes the login flow: short-lived access tokens plus a
// rotating refresh cookie backed by server-side sessions.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"printshop-backend/internal/config"
	mwauth "printshop-backend/internal/middleware/auth"
	"printshop-backend/internal/storage"
)

type SessionStore interface {
	GetEmployee(ctx context.Context, id int64) (*storage.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*storage.Employee, error)
	CreateSession(ctx context.Context, sess *storage.Session) (int64, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*storage.Session, error)
	RevokeSession(ctx context.Context, id int64, at time.Time) error
}

type Response struct {
	Success     bool              `json:"success"`
	AccessToken string            `json:"access_token,omitempty"`
	Employee    *storage.Employee `json:"employee,omitempty"`
	Error       string            `json:"error,omitempty"`
}

const refreshCookie = "rt"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(log *slog.Logger, cfg *config.Config, store SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Login"

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			http.Error(w, "email and password are required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employee, err := store.GetEmployeeByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, storage.ErrEmployeeNotFound) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			log.Error("login lookup failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		issueTokens(w, r, log, op, cfg, store, employee)
	}
}

// Refresh rotates the session: the presented token is revoked and a fresh
// one is issued, so a replayed old cookie fails.
func Refresh(log *slog.Logger, cfg *config.Config, store SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Refresh"

		cookie, err := r.Cookie(refreshCookie)
		if err != nil || cookie.Value == "" {
			http.Error(w, "missing refresh token", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		sess, err := store.GetSessionByTokenHash(ctx, hashToken(cookie.Value))
		if err != nil {
			if errors.Is(err, storage.ErrSessionNotFound) {
				http.Error(w, "invalid refresh token", http.StatusUnauthorized)
				return
			}
			log.Error("session lookup failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		now := time.Now().UTC()
		if sess.RevokedAt != nil || now.After(sess.ExpiresAt) {
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}

		employee, err := store.GetEmployee(ctx, sess.EmployeeID)
		if err != nil {
			log.Error("employee lookup failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := store.RevokeSession(ctx, sess.ID, now); err != nil {
			log.Error("session rotation failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		issueTokens(w, r, log, op, cfg, store, employee)
	}
}

func Logout(log *slog.Logger, store SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Logout"

		if cookie, err := r.Cookie(refreshCookie); err == nil && cookie.Value != "" {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			if sess, err := store.GetSessionByTokenHash(ctx, hashToken(cookie.Value)); err == nil {
				if err := store.RevokeSession(ctx, sess.ID, time.Now().UTC()); err != nil {
					log.Error("failed to revoke session", slog.String("op", op), slog.String("error", err.Error()))
				}
			}
		}

		clearRefreshCookie(w)
		render.JSON(w, r, Response{Success: true})
	}
}

// Me returns the employee behind the access token.
func Me(log *slog.Logger, store SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Me"

		id := mwauth.EmployeeID(r.Context())
		if id == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		employee, err := store.GetEmployee(ctx, *id)
		if err != nil {
			if errors.Is(err, storage.ErrEmployeeNotFound) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			log.Error("employee lookup failed", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Response{Success: true, Employee: employee})
	}
}

func issueTokens(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string,
	cfg *config.Config, store SessionStore, employee *storage.Employee) {

	access, err := mwauth.NewAccessToken(employee, cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		log.Error("failed to sign access token", slog.String("op", op), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	refresh := uuid.NewString()
	_, err = store.CreateSession(r.Context(), &storage.Session{
		EmployeeID: employee.ID,
		TokenHash:  hashToken(refresh),
		UserAgent:  r.UserAgent(),
		IP:         r.RemoteAddr,
		ExpiresAt:  now.Add(cfg.RefreshTTL),
		CreatedAt:  now,
	})
	if err != nil {
		log.Error("failed to create session", slog.String("op", op), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     "/api/auth",
		Expires:  now.Add(cfg.RefreshTTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	render.JSON(w, r, Response{Success: true, AccessToken: access, Employee: employee})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
