package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType distinguishes the two RH alert thresholds.
type NotificationType string

const (
	NotificationWarningRH NotificationType = "warning_rh"
	NotificationExpiredRH NotificationType = "expired_rh"
)

// TypeForStatus maps a product status to the alert type it triggers.
// Only warning and expired statuses notify.
func TypeForStatus(status ProductStatus) (NotificationType, bool) {
	switch status {
	case ProductStatusWarning:
		return NotificationWarningRH, true
	case ProductStatusExpired:
		return NotificationExpiredRH, true
	default:
		return "", false
	}
}

// NotificationLog is an append-only record of a confirmed successful send.
// SentOn is the calendar-day bucket in the deployment timezone; the unique
// index on (product_id, type, sent_on) is what makes "once per day" hold
// under concurrent sweeps.
type NotificationLog struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	ProductID      uuid.UUID        `json:"product_id" db:"product_id"`
	Type           NotificationType `json:"type" db:"type"`
	SentAt         time.Time        `json:"sent_at" db:"sent_at"`
	SentOn         time.Time        `json:"sent_on" db:"sent_on"`
	WhatsAppNumber string           `json:"whatsapp_number" db:"whatsapp_number"`
	Message        string           `json:"message" db:"message"`
	UserID         uuid.UUID        `json:"user_id" db:"user_id"`
}

type SendNotificationRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=warning expired"`
}

type AutoCheckRequest struct {
	Secret string `json:"secret" binding:"required"`
}
