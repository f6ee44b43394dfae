package validator

import (
	"campusres/pkg/logger"
	"campusres/pkg/model"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	receiptRegex = regexp.MustCompile(`^[0-9]{7}$`)
)

// IsReceiptNumber reports whether s is a well formed official receipt (OR) number.
func IsReceiptNumber(s string) bool {
	return receiptRegex.MatchString(s)
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Fields maps each failing field to its message, for error details.
func (v ValidationErrors) Fields() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"receipt_number": validateReceiptNumber,
		"iso_date":       validateISODate,
		"clock_time":     validateClockTime,
		"facility_type":  validateFacilityType,
		"booking_status": validateBookingStatus,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator",
				"tag", tag,
				"error", err,
			)
		}
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateReceiptNumber(fl validator.FieldLevel) bool {
	return IsReceiptNumber(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

// validateClockTime requires the zero-padded HH:MM form that the store compares lexicographically.
func validateClockTime(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	t, err := time.Parse(model.TimeLayout, s)
	return err == nil && t.Format(model.TimeLayout) == s
}

func validateFacilityType(fl validator.FieldLevel) bool {
	return model.FacilityType(fl.Field().String()).IsValid()
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return model.Status(fl.Field().String()).IsValid()
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validateStruct(booking); err != nil {
		return err
	}

	if !booking.Slot().IsValid() {
		return ValidationErrors{
			ValidationError{
				Field:   "end_time",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateReject(req *model.RejectRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateApprove(req *model.ApproveRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateReschedule(req *model.RescheduleRequest) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}

	if req.StartTime >= req.EndTime {
		return ValidationErrors{
			ValidationError{
				Field:   "end_time",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateBlockedDate(blocked *model.BlockedDateRange) error {
	if err := v.validateStruct(blocked); err != nil {
		return err
	}

	if blocked.FacilityType != nil && !blocked.FacilityType.IsValid() {
		return ValidationErrors{
			ValidationError{
				Field:   "facility_type",
				Message: fmt.Sprintf("facility_type must be one of: %s", facilityList()),
			},
		}
	}

	if blocked.EndDate < blocked.StartDate {
		return ValidationErrors{
			ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateNotification(n *model.Notification) error {
	return v.validateStruct(n)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func facilityList() string {
	names := make([]string, 0, len(model.FacilityTypes()))
	for _, f := range model.FacilityTypes() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "iso_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "clock_time":
			message = fmt.Sprintf("%s must be a time in HH:MM format", err.Field())
		case "facility_type":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), facilityList())
		case "booking_status":
			message = fmt.Sprintf("%s is not a known booking status", err.Field())
		case "receipt_number":
			message = "OR number must be exactly 7 digits."
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
