package models

import "etix/src/types"

// Attendee is one admitted ticket. A checkout for quantity N reconciles into
// N rows sharing one StripeSessionId, each with its own Code.
type Attendee struct {
	ID              uint                 `gorm:"primarykey" json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Phone           *string              `json:"phone,omitempty"`
	Quantity        uint                 `gorm:"default:1" json:"quantity"`
	Status          types.AttendeeStatus `gorm:"default:'pending'" json:"status"`
	Code            string               `gorm:"uniqueIndex" json:"code"`
	CheckedIn       bool                 `json:"checked_in"`
	StripeSessionId string               `gorm:"index" json:"-"`
	EventID         uint                 `json:"event_id"`

	Event *Event `gorm:"foreignKey:event_id" json:"event,omitempty"`

	types.Timestamps
}
