package utils

import (
	"strings"
	"testing"
	"time"

	"etix/src/models"

	"github.com/stretchr/testify/assert"
)

func TestGenerateQRCode(t *testing.T) {
	img, err := GenerateQRCode("TIX-ABCD2345")
	assert.Nil(t, err)
	assert.Greater(t, len(img), 0)
}

func TestGenerateTicketPDF(t *testing.T) {
	event := models.Event{
		ID:        1,
		Name:      "Launch Party",
		Location:  "Warehouse 12",
		EventDate: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		EventTime: "19:00",
		Price:     25,
		Capacity:  100,
	}
	attendee := models.Attendee{
		ID:    7,
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Code:  "TIX-ABCD2345",
	}

	pdf, err := GenerateTicketPDF(&event, &attendee)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
