package mailer

import (
	"etix/src/lib"
	"etix/src/models"
	"etix/src/utils"
	"fmt"
	"os"
	"strings"
)

func fromAddress() (string, string) {
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "no-reply@localhost"
	}
	fromName := os.Getenv("MAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Tickets"
	}
	return from, fromName
}

// SendTicketEmail sends one confirmation per reconciled session: a summary of
// every code in the group plus one PDF ticket attachment per attendee.
func SendTicketEmail(event *models.Event, attendees []models.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	first := attendees[0]
	attachments := make([]lib.Attachment, 0, len(attendees))
	codes := make([]string, 0, len(attendees))
	for i := range attendees {
		pdf, err := utils.GenerateTicketPDF(event, &attendees[i])
		if err != nil {
			return err
		}
		attachments = append(attachments, lib.Attachment{
			Filename: fmt.Sprintf("ticket-%s.pdf", attendees[i].Code),
			Data:     pdf,
		})
		codes = append(codes, attendees[i].Code)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>Booking Confirmed!</h1><p>Hi %s,</p>", first.Name))
	sb.WriteString("<p>Thank you for registering! Your booking has been confirmed and your tickets are attached.</p>")
	sb.WriteString("<h2>Your booking codes</h2><ul>")
	for _, code := range codes {
		sb.WriteString(fmt.Sprintf("<li><strong>%s</strong></li>", code))
	}
	sb.WriteString("</ul>")
	sb.WriteString(fmt.Sprintf("<p><strong>Event:</strong> %s<br>", event.Name))
	sb.WriteString(fmt.Sprintf("<strong>Date:</strong> %s %s<br>", event.EventDate.Format("Monday, 2 January 2006"), event.EventTime))
	sb.WriteString(fmt.Sprintf("<strong>Location:</strong> %s<br>", event.Location))
	sb.WriteString(fmt.Sprintf("<strong>Tickets:</strong> %d<br>", len(attendees)))
	sb.WriteString(fmt.Sprintf("<strong>Total paid:</strong> %.2f</p>", float64(len(attendees))*event.Price))
	sb.WriteString("<p>Each person should show their QR code at the entrance for check-in. See you at the event!</p>")

	from, fromName := fromAddress()
	return lib.SendMail(&lib.SendMailInput{
		From:        from,
		FromName:    fromName,
		To:          []string{first.Email},
		Subject:     fmt.Sprintf("%s - Ticket Confirmation", event.Name),
		Body:        sb.String(),
		Html:        true,
		Attachments: attachments,
	})
}

func SendPasswordResetEmail(admin *models.Admin, resetUrl string) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", admin.Name))
	sb.WriteString("<p>A password reset was requested for your account. The link below is valid for one hour.</p>")
	sb.WriteString(fmt.Sprintf(`<p><a href="%s">Reset your password</a></p>`, resetUrl))
	sb.WriteString("<p>If you did not request this, you can ignore this email.</p>")

	from, fromName := fromAddress()
	return lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       []string{admin.Email},
		Subject:  "Password reset",
		Body:     sb.String(),
		Html:     true,
	})
}
