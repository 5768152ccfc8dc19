package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/feitime/storefront/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// LoginResponse is the result payload for POST /api/auth/login.
type LoginResponse struct {
	Token  string         `json:"token"`
	Member *models.Member `json:"member"`
}

// loginHandler handles POST /api/auth/login. Unknown emails and wrong
// passwords produce the same response so the endpoint does not leak which
// accounts exist.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if s.authMgr == nil {
		slog.Error("loginHandler: auth manager not configured")
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Authentication is not configured"))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("loginHandler: invalid JSON payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	member, err := s.st.GetMemberByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("loginHandler: member lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Login failed"))
		return
	}
	if member == nil || bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)) != nil {
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid email or password"))
		return
	}

	token, err := s.authMgr.IssueToken(member.ID)
	if err != nil {
		slog.Error("loginHandler: issuing token failed", "error", err, "member_id", member.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Login failed"))
		return
	}

	slog.Info("loginHandler: member logged in", "member_id", member.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(LoginResponse{Token: token, Member: member}))
}

// requireAuth wraps a handler with bearer token verification and puts the
// member ID on the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authMgr == nil {
			writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Authentication is not configured"))
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Missing bearer token"))
			return
		}
		memberID, err := s.authMgr.VerifyToken(token)
		if err != nil {
			slog.Debug("requireAuth: token rejected", "error", err)
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid or expired token"))
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyMemberID, memberID)
		next(w, r.WithContext(ctx))
	}
}

// memberIDFromContext returns the authenticated member ID set by requireAuth.
func memberIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyMemberID).(string)
	return id
}
