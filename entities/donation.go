package entities

import (
	"time"

	"github.com/google/uuid"
)

type Donation struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	RequestID   uuid.UUID `gorm:"uniqueIndex" json:"request_id"`
	DonorID     uuid.UUID `json:"donor_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	BloodType   string    `json:"blood_type"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	// Confirmation flags, each settable once by the relevant party
	DonorArrived         bool       `json:"donor_arrived"`
	DonorArrivedAt       *time.Time `json:"donor_arrived_at,omitempty"`
	HospitalReceived     bool       `json:"hospital_received"`
	HospitalReceivedAt   *time.Time `json:"hospital_received_at,omitempty"`
	DonorCompleted       bool       `json:"donor_completed"`
	DonorCompletedAt     *time.Time `json:"donor_completed_at,omitempty"`
	BloodBankProcessed   bool       `json:"blood_bank_processed"`
	BloodBankProcessedAt *time.Time `json:"blood_bank_processed_at,omitempty"`
	RecipientReceived    bool       `json:"recipient_received"`
	RecipientReceivedAt  *time.Time `json:"recipient_received_at,omitempty"`

	// Verification evidence
	HospitalReceiptURL string `json:"hospital_receipt_url,omitempty"`
	StaffSignatureURL  string `json:"staff_signature_url,omitempty"`

	// Recomputed from the confirmation set on every mutation
	Status            string `json:"status"`             // initiated, scheduled, in_progress, donor_completed, hospital_confirmed, blood_processed, completed, disputed, failed
	VerificationLevel string `json:"verification_level"` // basic, verified, hospital_verified, medical_verified
	TrustScore        int    `json:"trust_score"`        // 0-100

	Donor     *User                    `gorm:"foreignKey:DonorID"`
	Recipient *User                    `gorm:"foreignKey:RecipientID"`
	Timeline  []*DonationTimelineEntry `gorm:"foreignKey:DonationID"`
	Disputes  []*DonationDispute       `gorm:"foreignKey:DonationID"`
	Timestamp
}

type DonationTimelineEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	DonationID  uuid.UUID `json:"donation_id"`
	Event       string    `json:"event"`
	Actor       string    `json:"actor"` // donor, recipient, hospital, system
	Notes       string    `json:"notes,omitempty"`
	EvidenceURL string    `json:"evidence_url,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`

	Donation *Donation `gorm:"foreignKey:DonationID"`
	Timestamp
}

type DonationDispute struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	DonationID uuid.UUID  `json:"donation_id"`
	ReportedBy uuid.UUID  `json:"reported_by"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"` // open, investigating, resolved, closed
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	Donation *Donation `gorm:"foreignKey:DonationID"`
	Timestamp
}
