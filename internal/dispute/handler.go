package dispute

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/attendance"
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
		Post("/lectures/{lectureID}/disputes", h.file)

	lecturerOnly := middleware.RequireRole(h.logger, user.RoleLecturer, user.RoleAdmin)
	r.With(lecturerOnly).Get("/lectures/{lectureID}/disputes", h.listByLecture)
	r.With(lecturerOnly).Post("/disputes/{disputeID}/resolve", h.resolve)
}

type fileRequest struct {
	EntryID string `json:"entry_id"`
	Reason  string `json:"reason"`
}

type disputeResponse struct {
	ID             string     `json:"id"`
	LectureID      string     `json:"lecture_id"`
	EntryID        string     `json:"entry_id"`
	StudentID      string     `json:"student_id"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	FiledAt        time.Time  `json:"filed_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
}

func toDisputeResponse(d *Dispute) disputeResponse {
	return disputeResponse{
		ID:             d.ID.String(),
		LectureID:      d.LectureID.String(),
		EntryID:        d.EntryID.String(),
		StudentID:      d.StudentID.String(),
		Reason:         d.Reason,
		Status:         string(d.Status),
		FiledAt:        d.FiledAt,
		ResolvedAt:     d.ResolvedAt,
		ResolutionNote: d.ResolutionNote,
	}
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}

	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}
	entryID, err := id.ParseEntryID(req.EntryID)
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid entry id"))
		return
	}

	d, err := h.service.File(r.Context(), lectureID, entryID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDisputeResponse(d))
}

type resolveRequest struct {
	Outcome   string `json:"outcome"` // "UPHELD" or "OVERTURNED"
	NewStatus string `json:"new_status,omitempty"`
	Note      string `json:"note"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	disputeID, err := id.ParseDisputeID(chi.URLParam(r, "disputeID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid dispute id"))
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}

	var input ResolveInput
	switch Status(req.Outcome) {
	case StatusUpheld:
		input = ResolveInput{Note: req.Note}
	case StatusOverturned:
		input = ResolveInput{
			Overturn:  true,
			NewStatus: attendance.EntryStatus(req.NewStatus),
			Note:      req.Note,
		}
	default:
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "outcome must be UPHELD or OVERTURNED"))
		return
	}

	d, err := h.service.Resolve(r.Context(), disputeID, input)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDisputeResponse(d))
}

func (h *Handler) listByLecture(w http.ResponseWriter, r *http.Request) {
	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}
	disputes, err := h.service.ListByLecture(r.Context(), lectureID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]disputeResponse, 0, len(disputes))
	for _, d := range disputes {
		out = append(out, toDisputeResponse(d))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"disputes": out})
}
