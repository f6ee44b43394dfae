package handler

import (
	"net/http"

	"campusres/internal/bookings/service"
	"campusres/pkg/auth"
	apperrors "campusres/pkg/errors"
	httputil "campusres/pkg/http"
	"campusres/pkg/logger"
	"campusres/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err, "GetByID")
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// Transition applies the action named in the path to the booking.
// The body carries the action's fields; approve may be sent without one.
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	action := model.Action(ps.ByName("action"))
	if !action.IsValid() {
		h.writeError(w, apperrors.NotFoundWithID("Action", string(action)), "Transition")
		return
	}

	var req model.TransitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err, "Transition")
		return
	}

	booking, err := h.service.Transition(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), action, req)
	if err != nil {
		h.writeError(w, err, "Transition")
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/:action", h.Transition)
}
