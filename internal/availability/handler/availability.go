package handler

import (
	"net/http"

	"campusres/internal/availability/service"
	apperrors "campusres/pkg/errors"
	httputil "campusres/pkg/http"
	"campusres/pkg/logger"
	"campusres/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Query(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facility, date, ok := h.facilityAndDate(w, r, "Query")
	if !ok {
		return
	}

	report, err := h.service.QueryAvailability(r.Context(), facility, date, httputil.QueryParam(r, "exclude_booking_id"))
	if err != nil {
		h.writeError(w, err, "Query")
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Query", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Conflict(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facility, date, ok := h.facilityAndDate(w, r, "Conflict")
	if !ok {
		return
	}

	start := httputil.QueryParam(r, "start_time")
	end := httputil.QueryParam(r, "end_time")
	if start == "" || end == "" {
		h.writeError(w, apperrors.InvalidInput("start_time and end_time are required"), "Conflict")
		return
	}

	result, err := h.service.CheckConflict(r.Context(), facility, date, start, end, httputil.QueryParam(r, "exclude_booking_id"))
	if err != nil {
		h.writeError(w, err, "Conflict")
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Conflict", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) BookedDates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facility := model.FacilityType(httputil.QueryParam(r, "facility_type"))
	if facility == "" {
		h.writeError(w, apperrors.InvalidInput("facility_type is required"), "BookedDates")
		return
	}

	dates, err := h.service.QueryBookedDates(r.Context(), facility, httputil.QueryParam(r, "exclude_booking_id"))
	if err != nil {
		h.writeError(w, err, "BookedDates")
		return
	}

	if err := httputil.WriteSuccess(w, model.BookedDatesResponse{
		FacilityType: facility,
		BookedDates:  dates,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "BookedDates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) facilityAndDate(w http.ResponseWriter, r *http.Request, handler string) (model.FacilityType, string, bool) {
	facility := model.FacilityType(httputil.QueryParam(r, "facility_type"))
	date := httputil.QueryParam(r, "date")
	if facility == "" || date == "" {
		h.writeError(w, apperrors.InvalidInput("facility_type and date are required"), handler)
		return "", "", false
	}
	return facility, date, true
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Query)
	router.GET("/api/v1/availability/conflict", h.Conflict)
	router.GET("/api/v1/availability/booked-dates", h.BookedDates)
}
