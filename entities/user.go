package entities

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name          string    `json:"name"`
	Email         string    `gorm:"uniqueIndex" json:"email"`
	Password      string    `json:"-"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	IsVerified    bool      `json:"is_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`

	// Medical info
	BloodType            *string    `json:"blood_type,omitempty"` // A+, A-, B+, B-, AB+, AB-, O+, O-
	IsDonor              bool       `json:"is_donor"`
	AvailableForDonation *bool      `json:"available_for_donation,omitempty"`
	LastDonationDate     *time.Time `json:"last_donation_date,omitempty"`
	MedicalNotes         string     `json:"medical_notes,omitempty"`

	// Notification preferences; nil flags fall back to defaults
	SMSEnabled    *bool  `json:"sms_enabled,omitempty"`
	PushEnabled   *bool  `json:"push_enabled,omitempty"`
	UrgencyLevels string `json:"urgency_levels,omitempty"` // comma separated, empty means all

	BloodRequests []*BloodRequest `gorm:"foreignKey:RequesterID"`
	Timestamp
}
