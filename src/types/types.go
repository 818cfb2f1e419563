package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type AttendeeStatus string

const (
	ATTENDEE_PENDING AttendeeStatus = "pending"
	ATTENDEE_PAID    AttendeeStatus = "paid"
)

// Machine-readable error codes surfaced next to the human message.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeEventInactive    = "event_inactive"
	ErrCodeCapacityExceeded = "capacity_exceeded"
	ErrCodeHasAttendees     = "has_attendees"
	ErrCodeUpstream         = "upstream_error"
	ErrCodeServer           = "server_error"
)

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type CreateCheckoutRequestBody struct {
	EventID  uint   `json:"event_id" binding:"required"`
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Quantity uint   `json:"quantity" binding:"required,min=1,max=10"`
}

type CreateEventRequestBody struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description,omitempty"`
	Location      string  `json:"location" binding:"required"`
	EventDate     string  `json:"event_date" binding:"required,eventdate" time_format:"2006-01-02"`
	EventTime     string  `json:"event_time" binding:"required"`
	Price         float64 `json:"price" binding:"min=0"`
	Capacity      uint    `json:"capacity" binding:"required,min=1"`
	StripePriceID *string `json:"stripe_price_id,omitempty"`
}

type UpdateEventRequestBody struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Location      *string  `json:"location,omitempty"`
	EventDate     *string  `json:"event_date,omitempty" binding:"omitempty,eventdate"`
	EventTime     *string  `json:"event_time,omitempty"`
	Price         *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
	Capacity      *uint    `json:"capacity,omitempty" binding:"omitempty,min=1"`
	StripePriceID *string  `json:"stripe_price_id,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type UpdateAttendeeRequestBody struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
}

type RegisterAdminRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmBody struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CodeURIParams struct {
	Code string `uri:"code" binding:"required"`
}

// SessionMetadata is the registration payload carried through the checkout
// session so the webhook handler is stateless with respect to the original
// request. Decoding fails closed; see utils.DecodeSessionMetadata.
type SessionMetadata struct {
	EventID  uint
	Name     string
	Email    string
	Phone    string
	Quantity int
}

type EventStats struct {
	AttendeeCount int64 `json:"attendee_count"`
	Remaining     int64 `json:"remaining"`
	IsFull        bool  `json:"is_full"`
}

type EventSummary struct {
	EventID        uint    `json:"event_id"`
	Name           string  `json:"name"`
	Capacity       uint    `json:"capacity"`
	TotalAttendees int64   `json:"total_attendees"`
	CheckedIn      int64   `json:"checked_in"`
	Remaining      int64   `json:"remaining"`
	IsFull         bool    `json:"is_full"`
	Revenue        float64 `json:"revenue"`
	PricePerTicket float64 `json:"price_per_ticket"`
}
