package enrollment

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/platform/middleware"
	"rollcall/internal/transport/http/shared"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, svc *Service) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.With(middleware.RequireRole(h.logger, user.RoleStudent)).
		Post("/classes/{classID}/enrollments", h.request)

	lecturerOnly := middleware.RequireRole(h.logger, user.RoleLecturer, user.RoleAdmin)
	r.With(lecturerOnly).Get("/classes/{classID}/enrollments", h.listByClass)
	r.With(lecturerOnly).Get("/classes/{classID}/roster", h.roster)
	r.With(lecturerOnly).Post("/enrollments/{enrollmentID}/approve", h.approve)
	r.With(lecturerOnly).Post("/enrollments/{enrollmentID}/reject", h.reject)
}

type enrollmentResponse struct {
	ID          string     `json:"id"`
	ClassID     string     `json:"class_id"`
	StudentID   string     `json:"student_id"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

func toEnrollmentResponse(enr *Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:          enr.ID.String(),
		ClassID:     enr.ClassID.String(),
		StudentID:   enr.StudentID.String(),
		Status:      string(enr.Status),
		RequestedAt: enr.RequestedAt,
		DecidedAt:   enr.DecidedAt,
	}
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}
	enr, err := h.service.Request(r.Context(), classID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEnrollmentResponse(enr))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error)) {
	enrollmentID, err := id.ParseEnrollmentID(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid enrollment id"))
		return
	}
	enr, err := fn(r.Context(), enrollmentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEnrollmentResponse(enr))
}

func (h *Handler) listByClass(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, h.service.ListByClass)
}

func (h *Handler) roster(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, h.service.Roster)
}

func (h *Handler) listWith(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, classID id.ClassID) ([]*Enrollment, error)) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}
	enrollments, err := fn(r.Context(), classID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]enrollmentResponse, 0, len(enrollments))
	for _, enr := range enrollments {
		out = append(out, toEnrollmentResponse(enr))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"enrollments": out})
}
