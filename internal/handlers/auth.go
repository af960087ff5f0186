package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
	"github.com/bluezpowerhouse/autoshop/libs/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey int

const claimsKey ctxKey = 0

// ClaimsFrom returns the verified token claims stored by RequireAuth.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

type AuthHandler struct {
	users    *storage.UserRepository
	logger   *slog.Logger
	secret   string
	tokenTTL time.Duration
}

func NewAuthHandler(users *storage.UserRepository, logger *slog.Logger, secret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthHandler{users: users, logger: logger, secret: secret, tokenTTL: tokenTTL}
}

// Bootstrap creates the initial admin account when the users table is empty.
// Credentials come from the environment so fresh deployments are never left
// without a login.
func (h *AuthHandler) Bootstrap(ctx context.Context, email, password string) error {
	n, err := h.users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 || email == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := h.users.Create(ctx, u); err != nil {
		return err
	}
	h.logger.Info("bootstrap admin created", "email", email)
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now().UTC()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      u.ID,
		Username: u.Username,
		Role:     u.Role,
		Iat:      now.Unix(),
		Exp:      now.Add(h.tokenTTL).Unix(),
	}, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.users.GetByID(r.Context(), claims.Sub)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
	})
}

// RequireAuth verifies the bearer token and stores its claims on the request
// context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ParseAndVerifyHS256(strings.TrimSpace(token), h.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireRole allows the request through only when the authenticated user
// holds one of the listed roles. Admin always passes.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if claims.Role == model.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient role")
		})
	}
}
