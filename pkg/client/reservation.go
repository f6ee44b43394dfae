package client

import (
	"campusres/pkg/model"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ReservationClient calls the reservations HTTP API on behalf of one actor.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseURL, actorID, actorRole string) *ReservationClient {
	c := NewHttpClient(baseURL)
	c.Headers[HeaderActorID] = actorID
	c.Headers[HeaderActorRole] = actorRole
	return &ReservationClient{httpClient: c}
}

func (c *ReservationClient) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(bookingID))
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *ReservationClient) Approve(ctx context.Context, bookingID string, req model.ApproveRequest) (*model.Booking, error) {
	return c.transition(ctx, bookingID, model.ActionApprove, req)
}

func (c *ReservationClient) Reject(ctx context.Context, bookingID string, req model.RejectRequest) (*model.Booking, error) {
	return c.transition(ctx, bookingID, model.ActionReject, req)
}

func (c *ReservationClient) Reschedule(ctx context.Context, bookingID string, req model.RescheduleRequest) (*model.Booking, error) {
	return c.transition(ctx, bookingID, model.ActionReschedule, req)
}

func (c *ReservationClient) Cancel(ctx context.Context, bookingID string, req model.CancelRequest) (*model.Booking, error) {
	return c.transition(ctx, bookingID, model.ActionCancel, req)
}

func (c *ReservationClient) transition(ctx context.Context, bookingID string, action model.Action, body any) (*model.Booking, error) {
	path := fmt.Sprintf("/api/v1/bookings/id/%s/%s", url.PathEscape(bookingID), action)
	resp, err := c.httpClient.POST(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *ReservationClient) Availability(ctx context.Context, facility model.FacilityType, date, excludeBookingID string) (*model.AvailabilityReport, error) {
	q := url.Values{}
	q.Set("facility_type", string(facility))
	q.Set("date", date)
	if excludeBookingID != "" {
		q.Set("exclude_booking_id", excludeBookingID)
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/availability?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var report model.AvailabilityReport
	if err := resp.DecodeData(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *ReservationClient) BookedDates(ctx context.Context, facility model.FacilityType, excludeBookingID string) ([]string, error) {
	q := url.Values{}
	q.Set("facility_type", string(facility))
	if excludeBookingID != "" {
		q.Set("exclude_booking_id", excludeBookingID)
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/availability/booked-dates?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var out model.BookedDatesResponse
	if err := resp.DecodeData(&out); err != nil {
		return nil, err
	}
	return out.BookedDates, nil
}

// APIError is a non-2xx reply from the reservations API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reservations api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func checkStatus(resp *Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body := GetError(resp)
	return &APIError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Error}
}

func decodeBooking(resp *Response) (*model.Booking, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var booking model.Booking
	if err := resp.DecodeData(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
