package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/mail"
	"github.com/LixUb/ZoNaTrip/internal/utils"

	"github.com/gabriel-vasile/mimetype"
)

const (
	RecipientCustomer = "customer"
	RecipientOperator = "operator"
)

// DocumentOpener reads a stored identity document back by reference.
type DocumentOpener interface {
	Open(ref string) ([]byte, error)
}

// Notifier composes and sends the two booking mails. Only the operator copy
// carries the identity document; the customer copy carries a PDF summary.
type Notifier struct {
	Mailer        mail.Mailer
	Documents     DocumentOpener
	OperatorEmail string
}

func (n Notifier) NotifyCustomer(ctx context.Context, rec models.BookingRecord, lines []models.OrderLine, total int64) error {
	rec.OrderLines = lines
	rec.TotalPrice = total

	msg := mail.Message{
		To:      rec.Email,
		Subject: "Konfirmasi Booking " + rec.ID,
		Body:    customerBody(rec),
	}
	pdf, name, err := BuildBookingSummaryPDF(rec.Public())
	if err != nil {
		return domain.NotificationError{Recipient: RecipientCustomer, Err: fmt.Errorf("build pdf: %w", err)}
	}
	msg.Attachments = append(msg.Attachments, mail.Attachment{Name: name, ContentType: "application/pdf", Data: pdf})

	if err := n.Mailer.Send(ctx, msg); err != nil {
		return domain.NotificationError{Recipient: RecipientCustomer, Err: err}
	}
	return nil
}

func (n Notifier) NotifyOperator(ctx context.Context, rec models.BookingRecord, lines []models.OrderLine, total int64, documentRef string) error {
	rec.OrderLines = lines
	rec.TotalPrice = total

	msg := mail.Message{
		To:      n.OperatorEmail,
		Subject: fmt.Sprintf("Booking Baru %s - %s", rec.ID, rec.FullName),
		Body:    operatorBody(rec),
	}
	if documentRef != "" && n.Documents != nil {
		data, err := n.Documents.Open(documentRef)
		if err != nil {
			return domain.NotificationError{Recipient: RecipientOperator, Err: fmt.Errorf("open identity document: %w", err)}
		}
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Name:        documentRef,
			ContentType: mimetype.Detect(data).String(),
			Data:        data,
		})
	}

	if err := n.Mailer.Send(ctx, msg); err != nil {
		return domain.NotificationError{Recipient: RecipientOperator, Err: err}
	}
	return nil
}

func customerBody(rec models.BookingRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", rec.FullName)
	b.WriteString("Terima kasih, booking Anda sudah kami terima.\n\n")
	writeBookingSummary(&b, rec)
	b.WriteString("\nRingkasan booking terlampir dalam format PDF.\n\nSalam,\nZoNaTrip\n")
	return b.String()
}

func operatorBody(rec models.BookingRecord) string {
	var b strings.Builder
	b.WriteString("Booking baru masuk.\n\n")
	fmt.Fprintf(&b, "Nama           : %s\n", rec.FullName)
	fmt.Fprintf(&b, "Email          : %s\n", rec.Email)
	fmt.Fprintf(&b, "No HP          : %s\n", rec.Phone)
	if rec.IdentityNumber != "" {
		fmt.Fprintf(&b, "No Identitas   : %s\n", rec.IdentityNumber)
	}
	writeBookingSummary(&b, rec)
	fmt.Fprintf(&b, "\nCatatan        : %s\n", safe(rec.BookingNotes, "-"))
	fmt.Fprintf(&b, "Catatan Makan  : %s\n", safe(rec.FoodNotes, "-"))
	return b.String()
}

func writeBookingSummary(b *strings.Builder, rec models.BookingRecord) {
	fmt.Fprintf(b, "Kode Booking   : %s\n", rec.ID)
	fmt.Fprintf(b, "Jenis Form     : %s\n", formTypeLabel(rec.FormType))
	fmt.Fprintf(b, "Tanggal        : %s\n", rec.TravelDate)
	fmt.Fprintf(b, "Jumlah Tamu    : %d\n", rec.GuestCount)
	fmt.Fprintf(b, "Tujuan         : %s\n", safe(rec.Destination, "-"))
	b.WriteString("\nPesanan:\n")
	b.WriteString(domain.Itemize(rec.OrderLines))
	fmt.Fprintf(b, "\nTotal: %s\n", utils.FormatRupiah(rec.TotalPrice))
}
