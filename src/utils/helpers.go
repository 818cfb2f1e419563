package utils

import (
	"crypto/rand"
	"errors"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCapacityExceeded = errors.New("event capacity exceeded")
	ErrEventInactive    = errors.New("event is not active")
	ErrInvalidMetadata  = errors.New("missing or invalid session metadata")
)

// codeCharset drops 0/O/1/I so codes survive being read out at the door.
const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const codeLength = 8

func GenerateTicketCode() string {
	buf := make([]byte, codeLength)
	rand.Read(buf)
	var sb strings.Builder
	sb.WriteString("TIX-")
	for _, b := range buf {
		sb.WriteByte(codeCharset[int(b)%len(codeCharset)])
	}
	return sb.String()
}

func GenerateJWT(email string, id uint, name string) (string, error) {
	jwtKey := []byte(os.Getenv("JWT_SECRET"))
	now := time.Now()
	claims := &types.Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// DecodeSessionMetadata validates the registration payload carried on a
// checkout session. It fails closed: a session missing any required field is
// rejected rather than defaulted, so a malformed event never creates rows.
func DecodeSessionMetadata(md map[string]string) (*types.SessionMetadata, error) {
	if md == nil {
		return nil, ErrInvalidMetadata
	}
	eventId, err := strconv.ParseUint(md["event_id"], 10, 32)
	if err != nil || eventId == 0 {
		return nil, ErrInvalidMetadata
	}
	name := strings.TrimSpace(md["name"])
	email := strings.TrimSpace(md["email"])
	if name == "" || email == "" {
		return nil, ErrInvalidMetadata
	}
	qty, err := strconv.Atoi(md["quantity"])
	if err != nil || qty < 1 || qty > 10 {
		return nil, ErrInvalidMetadata
	}
	return &types.SessionMetadata{
		EventID:  uint(eventId),
		Name:     name,
		Email:    email,
		Phone:    strings.TrimSpace(md["phone"]),
		Quantity: qty,
	}, nil
}

func GetEventStats(tx *gorm.DB, event *models.Event) (*types.EventStats, error) {
	var count int64
	if err := tx.
		Model(&models.Attendee{}).
		Where("event_id = ?", event.ID).
		Count(&count).
		Error; err != nil {
		return nil, err
	}
	return &types.EventStats{
		AttendeeCount: count,
		Remaining:     int64(event.Capacity) - count,
		IsFull:        count >= int64(event.Capacity),
	}, nil
}

func GetEventSummary(id uint) (*types.EventSummary, error) {
	var event models.Event
	var total, checkedIn int64
	db := db.GetDb()
	if err := db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	if err := db.
		Model(&models.Attendee{}).
		Where("event_id = ?", id).
		Count(&total).
		Error; err != nil {
		return nil, err
	}
	if err := db.
		Model(&models.Attendee{}).
		Where("event_id = ?", id).
		Where("checked_in = ?", true).
		Count(&checkedIn).
		Error; err != nil {
		return nil, err
	}
	return &types.EventSummary{
		EventID:        event.ID,
		Name:           event.Name,
		Capacity:       event.Capacity,
		TotalAttendees: total,
		CheckedIn:      checkedIn,
		Remaining:      int64(event.Capacity) - total,
		IsFull:         total >= int64(event.Capacity),
		Revenue:        float64(total) * event.Price,
		PricePerTicket: event.Price,
	}, nil
}

// CreateAttendeesFromSession reconciles a completed checkout session into
// attendee rows. The whole reconciliation runs in one transaction: the
// duplicate-session check makes at-least-once webhook delivery idempotent,
// and the row lock on the event serializes concurrent webhooks so capacity
// cannot be oversold between the re-check and the inserts.
func CreateAttendeesFromSession(cs *stripe.CheckoutSession) (*models.Event, []models.Attendee, bool, error) {
	var event models.Event
	attendees := make([]models.Attendee, 0)
	created := false
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		meta, err := DecodeSessionMetadata(cs.Metadata)
		if err != nil {
			log.Printf("[Webhook] Rejecting session %s: %s\n", cs.ID, err.Error())
			return err
		}

		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", meta.EventID).
			First(&event).
			Error; err != nil {
			return err
		}

		// The duplicate check must run under the event row lock: two
		// deliveries of the same session otherwise both count zero rows
		// before either inserts.
		var existing int64
		if err := tx.
			Model(&models.Attendee{}).
			Where("stripe_session_id = ?", cs.ID).
			Count(&existing).
			Error; err != nil {
			return err
		}
		if existing > 0 {
			log.Printf("[Webhook] Duplicate delivery for session %s, skipping\n", cs.ID)
			return nil
		}

		if !event.IsActive {
			return ErrEventInactive
		}
		var count int64
		if err := tx.
			Model(&models.Attendee{}).
			Where("event_id = ?", event.ID).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count+int64(meta.Quantity) > int64(event.Capacity) {
			return ErrCapacityExceeded
		}

		var phone *string
		if meta.Phone != "" {
			phone = &meta.Phone
		}
		for i := 0; i < meta.Quantity; i++ {
			code, err := newUniqueCode(tx)
			if err != nil {
				return err
			}
			attendee := models.Attendee{
				Name:            meta.Name,
				Email:           meta.Email,
				Phone:           phone,
				Quantity:        uint(meta.Quantity),
				Status:          types.ATTENDEE_PAID,
				Code:            code,
				StripeSessionId: cs.ID,
				EventID:         event.ID,
			}
			if err := tx.Create(&attendee).Error; err != nil {
				return err
			}
			attendees = append(attendees, attendee)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, nil, false, err
	}
	return &event, attendees, created, nil
}

// newUniqueCode checks Unscoped so codes are never reused, even when the
// original attendee row was soft-deleted.
func newUniqueCode(tx *gorm.DB) (string, error) {
	for i := 0; i < 5; i++ {
		code := GenerateTicketCode()
		var n int64
		if err := tx.
			Unscoped().
			Model(&models.Attendee{}).
			Where("code = ?", code).
			Count(&n).
			Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique ticket code")
}

const icsTimeFormat = "20060102T150405Z"

func GenerateICS(title, description, location string, start, end time.Time) string {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("PRODID:-//etix//tickets//EN\r\n")
	sb.WriteString("BEGIN:VEVENT\r\n")
	sb.WriteString(fmt.Sprintf("DTSTART:%s\r\n", start.UTC().Format(icsTimeFormat)))
	sb.WriteString(fmt.Sprintf("DTEND:%s\r\n", end.UTC().Format(icsTimeFormat)))
	sb.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(title)))
	sb.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))
	sb.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(location)))
	sb.WriteString("END:VEVENT\r\n")
	sb.WriteString("END:VCALENDAR\r\n")
	return sb.String()
}

func escapeICS(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}

func GoogleCalendarURL(title, details, location string, start, end time.Time) string {
	u, _ := url.Parse("https://calendar.google.com/calendar/render")
	q := u.Query()
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("details", details)
	q.Set("location", location)
	q.Set("dates", fmt.Sprintf("%s/%s", start.UTC().Format(icsTimeFormat), end.UTC().Format(icsTimeFormat)))
	u.RawQuery = q.Encode()
	return u.String()
}
