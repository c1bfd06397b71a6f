package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessRegister          = "user registered successfully"
	MessageSuccessLogin             = "login successful"
	MessageSuccessGetMe             = "user retrieved successfully"
	MessageSuccessUpdateUser        = "user updated successfully"
	MessageSuccessUpdatePreferences = "notification preferences updated successfully"
	MessageSuccessSendVerification  = "verification sent successfully"
	MessageSuccessVerify            = "verification successful"
	MessageFailedRegister           = "failed to register user"
	MessageFailedLogin              = "failed to login"
	MessageFailedGetMe              = "failed to retrieve user"
	MessageFailedUpdateUser         = "failed to update user"
	MessageFailedSendVerification   = "failed to send verification"
	MessageFailedVerify             = "failed to verify"

	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyUsed      = errors.New("email already registered")
	ErrWrongCredentials      = errors.New("wrong email or password")
	ErrAccountNotVerified    = errors.New("account email is not verified")
	ErrPhoneMissing          = errors.New("phone number is not set")
	ErrVerificationCodeWrong = errors.New("verification code is wrong or expired")
)

type (
	RegisterRequest struct {
		Name      string `json:"name" validate:"required,min=2,max=100"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=8"`
		Phone     string `json:"phone" validate:"omitempty,e164"`
		BloodType string `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}

	UpdateUserRequest struct {
		Name                 string   `json:"name" validate:"omitempty,min=2,max=100"`
		Phone                string   `json:"phone" validate:"omitempty,e164"`
		BloodType            string   `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
		IsDonor              *bool    `json:"is_donor" validate:"omitempty"`
		AvailableForDonation *bool    `json:"available_for_donation" validate:"omitempty"`
		LastDonationDate     string   `json:"last_donation_date" validate:"omitempty"`
		Latitude             *float64 `json:"latitude" validate:"omitempty"`
		Longitude            *float64 `json:"longitude" validate:"omitempty"`
	}

	UpdatePreferencesRequest struct {
		SMSEnabled    *bool    `json:"sms_enabled" validate:"omitempty"`
		PushEnabled   *bool    `json:"push_enabled" validate:"omitempty"`
		UrgencyLevels []string `json:"urgency_levels" validate:"omitempty,dive,oneof=critical urgent standard"`
	}

	VerifyPhoneRequest struct {
		Code string `json:"code" validate:"required,len=6,numeric"`
	}

	NotificationPreferences struct {
		SMSEnabled    bool     `json:"sms_enabled"`
		PushEnabled   bool     `json:"push_enabled"`
		UrgencyLevels []string `json:"urgency_levels"`
	}

	User struct {
		ID                   string                   `json:"id"`
		Name                 string                   `json:"name"`
		Email                string                   `json:"email"`
		Phone                string                   `json:"phone,omitempty"`
		Role                 string                   `json:"role"`
		IsVerified           bool                     `json:"is_verified"`
		PhoneVerified        bool                     `json:"phone_verified"`
		BloodType            string                   `json:"blood_type,omitempty"`
		IsDonor              bool                     `json:"is_donor"`
		AvailableForDonation *bool                    `json:"available_for_donation,omitempty"`
		LastDonationDate     *time.Time               `json:"last_donation_date,omitempty"`
		Latitude             *float64                 `json:"latitude,omitempty"`
		Longitude            *float64                 `json:"longitude,omitempty"`
		Preferences          *NotificationPreferences `json:"notification_preferences,omitempty"`
		CreatedAt            time.Time                `json:"created_at"`
	}
)
