package domain

import (
	"errors"
	"time"
)

const (
	UrgencyCritical = "critical"
	UrgencyUrgent   = "urgent"
	UrgencyStandard = "standard"

	RequestStatusActive    = "active"
	RequestStatusFulfilled = "fulfilled"
	RequestStatusExpired   = "expired"
	RequestStatusCancelled = "cancelled"

	MatchStatusPending   = "pending"
	MatchStatusAccepted  = "accepted"
	MatchStatusCompleted = "completed"
	MatchStatusDeclined  = "declined"
)

var (
	MessageSuccessCreateRequest   = "blood request created successfully"
	MessageSuccessGetRequests     = "blood requests retrieved successfully"
	MessageSuccessRespondRequest  = "response recorded successfully"
	MessageSuccessCancelRequest   = "blood request cancelled successfully"
	MessageFailedCreateRequest    = "failed to create blood request"
	MessageFailedGetRequests      = "failed to retrieve blood requests"
	MessageFailedRespondRequest   = "failed to respond to blood request"
	MessageFailedCancelRequest    = "failed to cancel blood request"
	MessageRequestNoLongerNeeded  = "request no longer available"
	MessageRequestDeadlinePassed  = "request deadline has passed"

	ErrRequestNotFound          = errors.New("blood request not found")
	ErrRequestNotActive         = errors.New("blood request is not active")
	ErrRequestDeadlinePassed    = errors.New("blood request deadline has passed")
	ErrRequestNoLongerAvailable = errors.New("request no longer available")
	ErrInvalidBloodType         = errors.New("invalid blood type")
	ErrInvalidUrgencyLevel      = errors.New("invalid urgency level")
	ErrInvalidRequiredUnits     = errors.New("required units must be at least 1")
	ErrDeadlineInPast           = errors.New("deadline must be in the future")
	ErrSelfResponse             = errors.New("cannot respond to your own request")
	ErrAlreadyResponded         = errors.New("already responded to this request")
	ErrIncompatibleBloodType    = errors.New("blood type is not compatible")
	ErrDonorUnavailable         = errors.New("donor is not available for donation")
	ErrDonorBloodTypeMissing    = errors.New("donor blood type is not set")
	ErrDonorNotEligible         = errors.New("donor is not eligible for this request")
	ErrUnauthorizedRequestEdit  = errors.New("unauthorized access to blood request")
)

type (
	CreateBloodRequestRequest struct {
		PatientName       string  `json:"patient_name" validate:"required"`
		PatientAge        int     `json:"patient_age" validate:"required,min=0,max=130"`
		PatientBloodType  string  `json:"patient_blood_type" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
		PatientCondition  string  `json:"patient_condition" validate:"omitempty"`
		HospitalName      string  `json:"hospital_name" validate:"required"`
		HospitalAddress   string  `json:"hospital_address" validate:"omitempty"`
		HospitalLatitude  float64 `json:"hospital_latitude" validate:"omitempty"`
		HospitalLongitude float64 `json:"hospital_longitude" validate:"omitempty"`
		HospitalContact   string  `json:"hospital_contact" validate:"omitempty"`
		UrgencyLevel      string  `json:"urgency_level" validate:"required,oneof=critical urgent standard"`
		RequiredUnits     int     `json:"required_units" validate:"required,min=1,max=10"`
		Deadline          string  `json:"deadline" validate:"required"` // RFC3339
		ContactName       string  `json:"contact_name" validate:"required"`
		ContactPhone      string  `json:"contact_phone" validate:"required"`
	}

	MatchedDonorRecord struct {
		DonorID        string    `json:"donor_id"`
		DonorName      string    `json:"donor_name"`
		DonorBloodType string    `json:"donor_blood_type"`
		Status         string    `json:"status"`
		RespondedAt    time.Time `json:"responded_at"`
	}

	BloodRequest struct {
		ID                string                `json:"id"`
		RequesterID       string                `json:"requester_id"`
		PatientName       string                `json:"patient_name"`
		PatientAge        int                   `json:"patient_age"`
		PatientBloodType  string                `json:"patient_blood_type"`
		PatientCondition  string                `json:"patient_condition,omitempty"`
		HospitalName      string                `json:"hospital_name"`
		HospitalAddress   string                `json:"hospital_address,omitempty"`
		HospitalLatitude  float64               `json:"hospital_latitude,omitempty"`
		HospitalLongitude float64               `json:"hospital_longitude,omitempty"`
		HospitalContact   string                `json:"hospital_contact,omitempty"`
		UrgencyLevel      string                `json:"urgency_level"`
		RequiredUnits     int                   `json:"required_units"`
		FulfilledUnits    int                   `json:"fulfilled_units"`
		Deadline          time.Time             `json:"deadline"`
		Status            string                `json:"status"`
		ContactName       string                `json:"contact_name"`
		ContactPhone      string                `json:"contact_phone"`
		MatchedDonors     []*MatchedDonorRecord `json:"matched_donors"`
		Distance          float64               `json:"distance,omitempty"`
		CreatedAt         time.Time             `json:"created_at"`
		UpdatedAt         time.Time             `json:"updated_at"`
	}

	GetNearbyRequestsRequest struct {
		Latitude  float64 `json:"latitude" validate:"required"`
		Longitude float64 `json:"longitude" validate:"required"`
		Radius    float64 `json:"radius" validate:"required,min=1,max=100"`
	}

	ContactSummary struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone,omitempty"`
	}

	AcceptResult struct {
		RequestID      string          `json:"request_id"`
		DonationID     string          `json:"donation_id"`
		ChatChannelID  string          `json:"chat_channel_id"`
		Donor          *ContactSummary `json:"donor"`
		Requester      *ContactSummary `json:"requester"`
		AcceptedUnits  int             `json:"accepted_units"`
		RequiredUnits  int             `json:"required_units"`
		Fulfilled      bool            `json:"fulfilled"`
	}
)
