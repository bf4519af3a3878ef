// Package handler exposes the attendance endpoints. Generation is restricted
// to lecturers and admins; the generated record is readable by any
// authenticated user.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/attendance"
	"rollcall/internal/attendance/service"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/transport/http/shared"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	service *service.Service
}

func New(logger *slog.Logger, svc *service.Service) *Handler {
	return &Handler{logger: logger, service: svc}
}

// Routes mounts the attendance endpoints under /lectures/{lectureID}.
func (h *Handler) Routes(r chi.Router) {
	r.With(middleware.RequireRole(h.logger, user.RoleLecturer, user.RoleAdmin)).
		Post("/lectures/{lectureID}/attendance/generate", h.generate)
	r.Get("/lectures/{lectureID}/attendance", h.getRecord)
}

type entryResponse struct {
	ID              string  `json:"id"`
	StudentID       string  `json:"student_id"`
	Status          string  `json:"status"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type recordResponse struct {
	ID               string          `json:"id"`
	LectureID        string          `json:"lecture_id"`
	ClassID          string          `json:"class_id"`
	GeneratedAt      time.Time       `json:"generated_at"`
	GenerationMethod string          `json:"generation_method"`
	ConfidenceScore  float64         `json:"confidence_score"`
	Status           string          `json:"status"`
	Entries          []entryResponse `json:"entries"`
}

type generateResponse struct {
	Record           recordResponse `json:"record"`
	AlreadyProcessed bool           `json:"already_processed"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}

	result, err := h.service.Generate(ctx, lectureID)
	if err != nil {
		h.logger.ErrorContext(ctx, "generate attendance failed",
			"lecture_id", lectureID.String(),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyProcessed {
		status = http.StatusOK
	}
	shared.WriteJSON(w, status, generateResponse{
		Record:           toRecordResponse(result.Record, result.Entries),
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}

	rec, entries, err := h.service.GetRecord(ctx, lectureID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponse(rec, entries))
}

func toRecordResponse(rec *attendance.Record, entries []*attendance.Entry) recordResponse {
	resp := recordResponse{
		ID:               rec.ID.String(),
		LectureID:        rec.LectureID.String(),
		ClassID:          rec.ClassID.String(),
		GeneratedAt:      rec.GeneratedAt,
		GenerationMethod: rec.GenerationMethod,
		ConfidenceScore:  rec.ConfidenceScore,
		Status:           string(rec.Status),
		Entries:          make([]entryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, entryResponse{
			ID:              entry.ID.String(),
			StudentID:       entry.StudentID.String(),
			Status:          string(entry.Status),
			ConfidenceScore: entry.ConfidenceScore,
		})
	}
	return resp
}
