package utils

import (
	"bytes"
	"etix/src/models"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yeqown/go-qrcode"
)

// GenerateQRCode renders the attendee code as a scannable JPEG. The code
// itself is the QR payload; the scanner posts it back to the check-in route.
func GenerateQRCode(code string) ([]byte, error) {
	qrc, err := qrcode.New(code)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateTicketPDF builds a one-page A4 ticket with the event details and
// the attendee's QR code.
func GenerateTicketPDF(event *models.Event, attendee *models.Attendee) ([]byte, error) {
	qr, err := GenerateQRCode(attendee.Code)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(0, 59, 115)
	pdf.CellFormat(0, 12, event.Name, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, fmt.Sprintf("Date: %s %s", event.EventDate.Format("Monday, 2 January 2006"), event.EventTime), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Location: %s", event.Location), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Name: %s", attendee.Name), "", 1, "L", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 116, 217)
	pdf.CellFormat(0, 10, fmt.Sprintf("Booking Code: %s", attendee.Code), "", 1, "L", false, 0, "")

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(attendee.Code, opts, bytes.NewReader(qr))
	pdf.ImageOptions(attendee.Code, 65, 110, 80, 80, false, opts, 0, "")

	pdf.SetY(250)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Show this QR code at the entrance for check-in.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
