package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus is derived from the product's dates, never set directly.
type ProductStatus string

const (
	ProductStatusSafe    ProductStatus = "safe"
	ProductStatusWarning ProductStatus = "warning"
	ProductStatusExpired ProductStatus = "expired"
)

// DefaultRHDaysBefore is the lead time applied when a product is created
// without an explicit rh_days_before.
const DefaultRHDaysBefore = 14

type Product struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	Name           string        `json:"name" db:"name"`
	Quantity       int           `json:"quantity" db:"quantity"`
	ExpirationDate time.Time     `json:"expiration_date" db:"expiration_date"`
	RHDaysBefore   int           `json:"rh_days_before" db:"rh_days_before"`
	RHDate         time.Time     `json:"rh_date" db:"rh_date"`
	Status         ProductStatus `json:"status" db:"status"`
	UserID         uuid.UUID     `json:"user_id" db:"user_id"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// ProductWithOwner joins a product with the owner fields the dispatcher needs.
type ProductWithOwner struct {
	Product
	OwnerWhatsApp string `json:"-" db:"owner_whatsapp"`
}

type CreateProductRequest struct {
	Name           string `json:"name" binding:"required"`
	ExpirationDate string `json:"expiration_date" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	RHDaysBefore   *int   `json:"rh_days_before"`
	RHDate         string `json:"rh_date"`
}

type UpdateProductRequest struct {
	Name           *string `json:"name"`
	ExpirationDate *string `json:"expiration_date"`
	Quantity       *int    `json:"quantity" binding:"omitempty,gt=0"`
	RHDaysBefore   *int    `json:"rh_days_before"`
	RHDate         *string `json:"rh_date"`
}

type ProductFilters struct {
	UserID uuid.UUID
	Status ProductStatus
	Page   int
	Limit  int
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// StatusBucket aggregates one status slice of the statistics summary.
type StatusBucket struct {
	Count      int `json:"count"`
	Quantity   int `json:"quantity"`
	Percentage int `json:"percentage"`
}

type StatisticsSummary struct {
	TotalProducts int          `json:"total_products"`
	TotalQuantity int          `json:"total_quantity"`
	Safe          StatusBucket `json:"safe"`
	Warning       StatusBucket `json:"warning"`
	Expired       StatusBucket `json:"expired"`
}

// ProductDigest is the trimmed product view used in statistics lists.
type ProductDigest struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	RHDate         time.Time `json:"rh_date,omitempty"`
	ExpirationDate time.Time `json:"expiration_date"`
	DaysUntilRH    int       `json:"days_until_rh"`
}

type Statistics struct {
	Summary     StatisticsSummary `json:"summary"`
	UpcomingRH  []ProductDigest   `json:"upcoming_rh"`
	ExpiredList []ProductDigest   `json:"expired_list"`
}
