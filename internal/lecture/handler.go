package lecture

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/evidence"
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
	r.Get("/lectures/{lectureID}", h.get)
	r.Get("/classes/{classID}/lectures", h.listByClass)

	lecturerOnly := middleware.RequireRole(h.logger, user.RoleLecturer, user.RoleAdmin)
	r.With(lecturerOnly).Post("/classes/{classID}/lectures", h.schedule)
	r.With(lecturerOnly).Post("/lectures/{lectureID}/photos", h.registerPhoto)
	r.With(lecturerOnly).Get("/lectures/{lectureID}/photos", h.listEvidence)
}

type scheduleRequest struct {
	SlotID string `json:"slot_id"`
}

type lectureResponse struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	SlotID    string    `json:"slot_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLectureResponse(lec *Lecture) lectureResponse {
	return lectureResponse{
		ID:        lec.ID.String(),
		ClassID:   lec.ClassID.String(),
		SlotID:    lec.SlotID.String(),
		Status:    string(lec.Status),
		CreatedAt: lec.CreatedAt,
		UpdatedAt: lec.UpdatedAt,
	}
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}
	slotID, err := id.ParseSlotID(req.SlotID)
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid slot id"))
		return
	}

	lec, err := h.service.Schedule(r.Context(), classID, slotID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toLectureResponse(lec))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}
	lec, err := h.service.Get(r.Context(), lectureID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toLectureResponse(lec))
}

func (h *Handler) listByClass(w http.ResponseWriter, r *http.Request) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}
	lectures, err := h.service.ListByClass(r.Context(), classID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]lectureResponse, 0, len(lectures))
	for _, lec := range lectures {
		out = append(out, toLectureResponse(lec))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"lectures": out})
}

type registerPhotoRequest struct {
	StoragePointer string `json:"storage_pointer"`
}

type evidenceResponse struct {
	ID             string    `json:"id"`
	LectureID      string    `json:"lecture_id"`
	StoragePointer string    `json:"storage_pointer"`
	UploadedBy     string    `json:"uploaded_by"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

func toEvidenceResponse(item *evidence.Item) evidenceResponse {
	return evidenceResponse{
		ID:             item.ID.String(),
		LectureID:      item.LectureID.String(),
		StoragePointer: item.StoragePointer,
		UploadedBy:     item.UploadedBy.String(),
		UploadedAt:     item.UploadedAt,
	}
}

func (h *Handler) registerPhoto(w http.ResponseWriter, r *http.Request) {
	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}

	var req registerPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}

	item, err := h.service.RegisterPhoto(r.Context(), lectureID, req.StoragePointer)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEvidenceResponse(item))
}

func (h *Handler) listEvidence(w http.ResponseWriter, r *http.Request) {
	lectureID, err := id.ParseLectureID(chi.URLParam(r, "lectureID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid lecture id"))
		return
	}
	items, err := h.service.ListEvidence(r.Context(), lectureID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]evidenceResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toEvidenceResponse(item))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"photos": out})
}
