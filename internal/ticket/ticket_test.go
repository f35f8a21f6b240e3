package ticket

import (
	"bytes"
	"image/png"
	"testing"
)

func TestQRCode(t *testing.T) {
	bs, err := QRCode("42", 256)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(bs))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestQRCodeDefaultSize(t *testing.T) {
	bs, err := QRCode("42", 0)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(bs))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != DefaultQRSize {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}
}

func TestPDF(t *testing.T) {
	bs, err := PDF(Ticket{ReservationCode: 7, Auditorium: "Sala A", Time: "3:00 PM", Seat: 5, Email: "a@b.com"})
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(bs, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", bs[:8])
	}
	if !bytes.Contains(bs, []byte("%%EOF")) {
		t.Fatal("output lacks the PDF trailer")
	}
}

func TestPayload(t *testing.T) {
	if got := (Ticket{ReservationCode: 123}).Payload(); got != "123" {
		t.Fatalf("Payload = %q", got)
	}
}
