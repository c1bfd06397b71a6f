package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

const (
	DonationStatusInitiated        = "initiated"
	DonationStatusScheduled        = "scheduled"
	DonationStatusInProgress       = "in_progress"
	DonationStatusDonorCompleted   = "donor_completed"
	DonationStatusHospitalConfirm  = "hospital_confirmed"
	DonationStatusBloodProcessed   = "blood_processed"
	DonationStatusRecipientConfirm = "recipient_confirmed"
	DonationStatusCompleted        = "completed"
	DonationStatusDisputed         = "disputed"
	DonationStatusFailed           = "failed"

	VerificationBasic    = "basic"
	VerificationVerified = "verified"
	VerificationHospital = "hospital_verified"
	VerificationMedical  = "medical_verified"

	ConfirmationDonorArrived       = "donor_arrived"
	ConfirmationHospitalReceived   = "hospital_received"
	ConfirmationDonorCompleted     = "donor_completed"
	ConfirmationBloodBankProcessed = "blood_bank_processed"
	ConfirmationRecipientReceived  = "recipient_received"

	ActorDonor     = "donor"
	ActorRecipient = "recipient"
	ActorHospital  = "hospital"
	ActorSystem    = "system"

	DisputeStatusOpen          = "open"
	DisputeStatusInvestigating = "investigating"
	DisputeStatusResolved      = "resolved"
	DisputeStatusClosed        = "closed"

	EvidenceHospitalReceipt = "hospital_receipt"
	EvidenceStaffSignature  = "staff_signature"
)

var (
	MessageSuccessGetDonation        = "donation retrieved successfully"
	MessageSuccessRecordConfirmation = "confirmation recorded successfully"
	MessageSuccessReportDispute      = "dispute reported successfully"
	MessageSuccessUploadEvidence     = "evidence uploaded successfully"
	MessageFailedGetDonation         = "failed to retrieve donation"
	MessageFailedRecordConfirmation  = "failed to record confirmation"
	MessageFailedReportDispute       = "failed to report dispute"
	MessageFailedUploadEvidence      = "failed to upload evidence"

	ErrDonationNotFound           = errors.New("donation not found")
	ErrDonationAlreadyExists      = errors.New("donation already exists for this request")
	ErrUnknownConfirmation        = errors.New("unknown confirmation name")
	ErrUnknownActor               = errors.New("unknown actor")
	ErrConfirmationAlreadySet     = errors.New("confirmation already recorded")
	ErrUnknownEvidenceKind        = errors.New("unknown evidence kind")
	ErrDisputeReasonRequired      = errors.New("dispute reason is required")
	ErrUnauthorizedDonationAccess = errors.New("unauthorized access to donation")
)

type (
	RecordConfirmationRequest struct {
		DonationID   string `json:"donation_id" validate:"required,uuid"`
		Confirmation string `json:"confirmation" validate:"required,oneof=donor_arrived hospital_received donor_completed blood_bank_processed recipient_received"`
		Actor        string `json:"actor" validate:"required,oneof=donor recipient hospital system"`
		Notes        string `json:"notes" validate:"omitempty,max=1000"`
		EvidenceURL  string `json:"evidence_url" validate:"omitempty,url"`
	}

	ReportDisputeRequest struct {
		DonationID string `json:"donation_id" validate:"required,uuid"`
		Reason     string `json:"reason" validate:"required,min=10,max=1000"`
	}

	UploadEvidenceRequest struct {
		DonationID string                `json:"donation_id" validate:"required,uuid"`
		Kind       string                `json:"kind" validate:"required,oneof=hospital_receipt staff_signature"`
		File       *multipart.FileHeader `json:"file" form:"file"`
	}

	TimelineEntry struct {
		Event       string    `json:"event"`
		Actor       string    `json:"actor"`
		Notes       string    `json:"notes,omitempty"`
		EvidenceURL string    `json:"evidence_url,omitempty"`
		OccurredAt  time.Time `json:"occurred_at"`
	}

	DisputeReport struct {
		ID         string    `json:"id"`
		ReportedBy string    `json:"reported_by"`
		Reason     string    `json:"reason"`
		Status     string    `json:"status"`
		CreatedAt  time.Time `json:"created_at"`
	}

	Confirmation struct {
		Confirmed   bool       `json:"confirmed"`
		ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	}

	Donation struct {
		ID                 string           `json:"id"`
		RequestID          string           `json:"request_id"`
		DonorID            string           `json:"donor_id"`
		RecipientID        string           `json:"recipient_id"`
		BloodType          string           `json:"blood_type"`
		ScheduledAt        *time.Time       `json:"scheduled_at,omitempty"`
		DonorArrived       Confirmation     `json:"donor_arrived"`
		HospitalReceived   Confirmation     `json:"hospital_received"`
		DonorCompleted     Confirmation     `json:"donor_completed"`
		BloodBankProcessed Confirmation     `json:"blood_bank_processed"`
		RecipientReceived  Confirmation     `json:"recipient_received"`
		HospitalReceiptURL string           `json:"hospital_receipt_url,omitempty"`
		StaffSignatureURL  string           `json:"staff_signature_url,omitempty"`
		Status             string           `json:"status"`
		VerificationLevel  string           `json:"verification_level"`
		TrustScore         int              `json:"trust_score"`
		HasOpenDispute     bool             `json:"has_open_dispute"`
		Timeline           []*TimelineEntry `json:"timeline"`
		Disputes           []*DisputeReport `json:"disputes,omitempty"`
		CreatedAt          time.Time        `json:"created_at"`
		UpdatedAt          time.Time        `json:"updated_at"`
	}
)
