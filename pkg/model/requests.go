package model

// ApproveRequest's receipt is checked by the approve guard, which reports
// missing and malformed OR numbers separately.
type ApproveRequest struct {
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Remarks       string `json:"remarks,omitempty" validate:"max=1000"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type RescheduleRequest struct {
	Date      string `json:"date" validate:"required,iso_date"`
	StartTime string `json:"start_time" validate:"required,clock_time"`
	EndTime   string `json:"end_time" validate:"required,clock_time"`
	Reason    string `json:"reason,omitempty" validate:"max=1000"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type BookedDatesResponse struct {
	FacilityType FacilityType `json:"facility_type"`
	BookedDates  []string     `json:"booked_dates"`
}

// TransitionRequest is the union of every action's payload, decoded once by
// the HTTP layer and narrowed per action.
type TransitionRequest struct {
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Date          string `json:"date,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
}

func (r TransitionRequest) Approve() ApproveRequest {
	return ApproveRequest{ReceiptNumber: r.ReceiptNumber, Remarks: r.Remarks}
}

func (r TransitionRequest) Reject() RejectRequest {
	return RejectRequest{Reason: r.Reason}
}

func (r TransitionRequest) Reschedule() RescheduleRequest {
	return RescheduleRequest{Date: r.Date, StartTime: r.StartTime, EndTime: r.EndTime, Reason: r.Reason}
}

func (r TransitionRequest) Cancel() CancelRequest {
	return CancelRequest{Reason: r.Reason}
}
