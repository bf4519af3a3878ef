package class

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/platform/middleware"
	"rollcall/internal/transport/http/shared"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, svc *Service) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/classes", h.list)
	r.Get("/classes/{classID}", h.get)
	r.Get("/classes/{classID}/slots", h.listSlots)

	lecturerOnly := middleware.RequireRole(h.logger, user.RoleLecturer, user.RoleAdmin)
	r.With(lecturerOnly).Post("/classes", h.create)
	r.With(lecturerOnly).Post("/classes/{classID}/slots", h.addSlot)
}

type createRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type classResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	LecturerID string    `json:"lecturer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toClassResponse(c *Class) classResponse {
	return classResponse{
		ID:         c.ID.String(),
		Code:       c.Code,
		Name:       c.Name,
		LecturerID: c.LecturerID.String(),
		CreatedAt:  c.CreatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}

	c, err := h.service.Create(ctx, req.Code, req.Name, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toClassResponse(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}
	c, err := h.service.Get(r.Context(), classID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toClassResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var lecturerID id.UserID
	if r.URL.Query().Get("mine") == "true" {
		lecturerID = requestcontext.UserID(ctx)
	}
	classes, err := h.service.List(ctx, lecturerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]classResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, toClassResponse(c))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"classes": out})
}

type addSlotRequest struct {
	Weekday         int    `json:"weekday"`
	StartsAt        string `json:"starts_at"`
	DurationMinutes int    `json:"duration_minutes"`
}

type slotResponse struct {
	ID              string `json:"id"`
	ClassID         string `json:"class_id"`
	Weekday         int    `json:"weekday"`
	StartsAt        string `json:"starts_at"`
	DurationMinutes int    `json:"duration_minutes"`
}

func toSlotResponse(slot *Slot) slotResponse {
	return slotResponse{
		ID:              slot.ID.String(),
		ClassID:         slot.ClassID.String(),
		Weekday:         int(slot.Weekday),
		StartsAt:        slot.StartsAt,
		DurationMinutes: int(slot.Duration.Minutes()),
	}
}

func (h *Handler) addSlot(w http.ResponseWriter, r *http.Request) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}

	var req addSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed body"))
		return
	}

	slot, err := h.service.AddSlot(r.Context(), classID,
		time.Weekday(req.Weekday), req.StartsAt,
		time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toSlotResponse(slot))
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid class id"))
		return
	}
	slots, err := h.service.ListSlots(r.Context(), classID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotResponse(slot))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"slots": out})
}
