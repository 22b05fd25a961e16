package model

// SweepReport accumulates the outcome of one sweep invocation.
// Counts are always populated even when Errors is non-empty; callers must
// inspect Errors separately from the primary success indication.
type SweepReport struct {
	StatusUpdated      int      `json:"status_updated"`
	WarningSent        int      `json:"warning_sent"`
	ExpiredSent        int      `json:"expired_sent"`
	TotalNotifications int      `json:"total_notifications"`
	Errors             []string `json:"errors,omitempty"`
}

// ToastKind is the closed set of real-time dashboard notification variants.
type ToastKind string

const (
	ToastNewProduct   ToastKind = "new_product"
	ToastProductAlert ToastKind = "product_alert"
	ToastWhatsAppSent ToastKind = "whatsapp_sent"
	ToastBroadcast    ToastKind = "broadcast"
)

// Toast is the payload published to the real-time channel. Exactly one of
// the optional variant payloads is set, selected by Kind.
type Toast struct {
	Kind     ToastKind      `json:"kind"`
	UserID   string         `json:"user_id,omitempty"`
	Product  *ProductDigest `json:"product,omitempty"`
	Status   ProductStatus  `json:"status,omitempty"`
	Message  string         `json:"message,omitempty"`
	SentTo   string         `json:"sent_to,omitempty"`
	Severity string         `json:"severity,omitempty"`
}
