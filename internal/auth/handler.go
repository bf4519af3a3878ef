package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/platform/middleware"
	"rollcall/internal/transport/http/shared"
	"rollcall/internal/user"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

// Handler exposes the auth endpoints. Login is public; everything else sits
// behind the bearer token.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator middleware.JWTValidator
}

func NewHandler(logger *slog.Logger, svc *Service, validator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, service: svc, validator: validator}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/auth/logout", h.logout)
		r.Get("/auth/sessions", h.listSessions)
		r.With(middleware.RequireRole(h.logger, user.RoleAdmin)).
			Post("/auth/accounts", h.createAccount)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "email and password are required"))
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		UserID:      result.User.ID.String(),
		Role:        result.User.Role,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.SessionID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	ID         string     `json:"id"`
	DeviceName string     `json:"device_name"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	Current    bool       `json:"current"`
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.service.ListSessions(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	current := requestcontext.SessionID(ctx)
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionResponse{
			ID:         sess.ID.String(),
			DeviceName: sess.DeviceName,
			CreatedAt:  sess.CreatedAt,
			ExpiresAt:  sess.ExpiresAt,
			RevokedAt:  sess.RevokedAt,
			Current:    sess.ID == current,
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	StudentID string `json:"student_id,omitempty"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}

	u, err := h.service.CreateAccount(ctx, CreateAccountInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := accountResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
	if !u.StudentID.IsZero() {
		resp.StudentID = u.StudentID.String()
	}
	shared.WriteJSON(w, http.StatusCreated, resp)
}
