// Package ticket renders printable artifacts for a booking confirmation:
// a QR code carrying the reservation code and a one-page PDF ticket.
package ticket

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of a standalone QR image.
const DefaultQRSize = 300

// Ticket is the data printed on a ticket.
type Ticket struct {
	ReservationCode uint64
	Auditorium      string
	Time            string
	Seat            int
	Email           string
}

// Payload is the text encoded in the ticket's QR code.  It carries only
// the reservation code; the door scanner looks the booking up.
func (t Ticket) Payload() string {
	return strconv.FormatUint(t.ReservationCode, 10)
}

// QRCode encodes text as a PNG QR code of size×size pixels with medium
// error correction.
func QRCode(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}
	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}

// PDF renders t as a single A4 page: the QR code centred on top, then
// the reservation details.
func PDF(t Ticket) ([]byte, error) {
	png, err := QRCode(t.Payload(), 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Ticket %d", t.ReservationCode), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, "Cinema Ticket", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	imgName := "qr_" + t.Payload()
	pdf.RegisterImageOptionsReader(imgName, imgOpts, bytes.NewReader(png))
	const qrSize = 80.0
	pdf.ImageOptions(imgName, (210-qrSize)/2, pdf.GetY(), qrSize, qrSize, false, imgOpts, 0, "")
	pdf.Ln(qrSize + 6)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(8)

	rows := [][2]string{
		{"Reservation code", t.Payload()},
		{"Auditorium", t.Auditorium},
		{"Showtime", t.Time},
		{"Seat", strconv.Itoa(t.Seat)},
		{"Email", t.Email},
	}
	for _, r := range rows {
		pdf.SetX(30)
		pdf.SetFont("Arial", "B", 13)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(55, 9, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 13)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 9, pdf.UnicodeTranslatorFromDescriptor("")(r[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(0, 5, "Show this code at the auditorium entrance. One ticket admits one person to the seat and showtime above.", "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}
