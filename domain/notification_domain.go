package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetNotifications = "notifications retrieved successfully"
	MessageSuccessMarkRead         = "notification marked as read"
	MessageFailedGetNotifications  = "failed to retrieve notifications"
	MessageFailedMarkRead          = "failed to mark notification as read"

	ErrNotificationNotFound = errors.New("notification not found")
)

type (
	Notification struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		Data      string    `json:"data,omitempty"`
		IsUrgent  bool      `json:"is_urgent"`
		IsRead    bool      `json:"is_read"`
		CreatedAt time.Time `json:"created_at"`
	}

	DispatchSummary struct {
		TotalPotentialDonors int `json:"total_potential_donors"`
		EligibleDonors       int `json:"eligible_donors"`
		NotificationsSent    int `json:"notifications_sent"`
	}
)
