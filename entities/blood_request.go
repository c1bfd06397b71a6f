package entities

import (
	"time"

	"github.com/google/uuid"
)

type BloodRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`

	PatientName      string `json:"patient_name"`
	PatientAge       int    `json:"patient_age"`
	PatientBloodType string `json:"patient_blood_type"`
	PatientCondition string `json:"patient_condition,omitempty"`

	HospitalName      string  `json:"hospital_name"`
	HospitalAddress   string  `json:"hospital_address"`
	HospitalLatitude  float64 `json:"hospital_latitude,omitempty"`
	HospitalLongitude float64 `json:"hospital_longitude,omitempty"`
	HospitalContact   string  `json:"hospital_contact,omitempty"`

	UrgencyLevel   string    `json:"urgency_level"` // critical, urgent, standard
	RequiredUnits  int       `json:"required_units"`
	FulfilledUnits int       `json:"fulfilled_units"`
	Deadline       time.Time `json:"deadline"`
	Status         string    `json:"status"` // active, fulfilled, expired, cancelled

	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`

	Requester     *User           `gorm:"foreignKey:RequesterID"`
	MatchedDonors []*MatchedDonor `gorm:"foreignKey:RequestID"`
	Timestamp
}

type MatchedDonor struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	RequestID      uuid.UUID  `gorm:"uniqueIndex:idx_request_donor" json:"request_id"`
	DonorID        uuid.UUID  `gorm:"uniqueIndex:idx_request_donor" json:"donor_id"`
	DonorName      string     `json:"donor_name"`
	DonorBloodType string     `json:"donor_blood_type"`
	Status         string     `json:"status"` // pending, accepted, completed, declined
	NotifiedAt     *time.Time `json:"notified_at,omitempty"`
	RespondedAt    time.Time  `json:"responded_at"`

	Request *BloodRequest `gorm:"foreignKey:RequestID"`
	Donor   *User         `gorm:"foreignKey:DonorID"`
	Timestamp
}
