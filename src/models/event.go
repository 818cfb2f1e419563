package models

import (
	"etix/src/types"
	"time"
)

type Event struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	Name          string  `json:"name"`
	Slug          string  `gorm:"index" json:"slug,omitempty"`
	Description   *string `json:"description,omitempty"`
	Location      string  `json:"location,omitempty"`
	EventDate     time.Time `json:"event_date"`
	EventTime     string  `json:"event_time,omitempty"`
	Price         float64 `json:"price"`
	Capacity      uint    `json:"capacity"`
	StripePriceId *string `json:"stripe_price_id,omitempty"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`

	Attendees []Attendee `json:"attendees,omitempty"`

	Stats *types.EventStats `gorm:"-" json:"stats,omitempty"`

	types.Timestamps
}
