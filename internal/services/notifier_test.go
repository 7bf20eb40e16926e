package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/logger"
	"github.com/LixUb/ZoNaTrip/internal/mail"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type docOpener map[string][]byte

func (d docOpener) Open(ref string) ([]byte, error) {
	data, ok := d[ref]
	if !ok {
		return nil, errors.New("no such document")
	}
	return data, nil
}

func notifierRecord() models.BookingRecord {
	return models.BookingRecord{
		ID:                  "BK-20250501-023015-3f2a9c1d7b4e",
		FullName:            "Ani",
		Email:               "ani@x.com",
		Phone:               "0811",
		TravelDate:          "2025-05-01",
		GuestCount:          2,
		IdentityNumber:      "3201",
		IdentityDocumentRef: "ktp-1-abc.jpg",
	}
}

func TestNotifier_Customer(t *testing.T) {
	mailer := &captureMailer{}
	n := Notifier{Mailer: mailer, Documents: docOpener{}, OperatorEmail: "admin@gozona.id"}
	lines, total := domain.FormatOrder(domain.DefaultPriceCatalog(), map[string]any{"kopi": 2, "nasiGoreng": 1})

	if err := n.NotifyCustomer(context.Background(), notifierRecord(), lines, total); err != nil {
		t.Fatalf("NotifyCustomer returned error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "ani@x.com" || !strings.Contains(msg.Subject, "BK-20250501-023015-3f2a9c1d7b4e") {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	if !strings.Contains(msg.Body, "Total: Rp55.000") || !strings.Contains(msg.Body, "2 x Kopi @ Rp10.000 = Rp20.000") {
		t.Fatalf("body missing order summary:\n%s", msg.Body)
	}
	if strings.Contains(msg.Body, "3201") || strings.Contains(msg.Body, "ktp-1-abc.jpg") {
		t.Fatalf("customer mail leaks identity data")
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].ContentType != "application/pdf" {
		t.Fatalf("expected only the PDF summary, got %+v", msg.Attachments)
	}
}

func TestNotifier_OperatorCarriesDocument(t *testing.T) {
	mailer := &captureMailer{}
	n := Notifier{
		Mailer:        mailer,
		Documents:     docOpener{"ktp-1-abc.jpg": testJPEG},
		OperatorEmail: "admin@gozona.id",
	}

	if err := n.NotifyOperator(context.Background(), notifierRecord(), nil, 0, "ktp-1-abc.jpg"); err != nil {
		t.Fatalf("NotifyOperator returned error: %v", err)
	}
	msg := mailer.sent[0]
	if msg.To != "admin@gozona.id" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].ContentType != "image/jpeg" {
		t.Fatalf("expected the identity document, got %+v", msg.Attachments)
	}
	if !strings.Contains(msg.Body, "Pesanan:\n-") {
		t.Fatalf("empty order should render as '-':\n%s", msg.Body)
	}
}

func TestNotifier_Failures(t *testing.T) {
	n := Notifier{Mailer: &captureMailer{err: errors.New("smtp down")}, Documents: docOpener{"ktp-1-abc.jpg": testJPEG}}
	err := n.NotifyCustomer(context.Background(), notifierRecord(), nil, 0)
	if !domain.IsNotification(err) {
		t.Fatalf("expected notification error, got %v", err)
	}

	n = Notifier{Mailer: &captureMailer{}, Documents: docOpener{}}
	err = n.NotifyOperator(context.Background(), notifierRecord(), nil, 0, "missing.jpg")
	if !domain.IsNotification(err) {
		t.Fatalf("expected notification error, got %v", err)
	}
}

func TestNotifier_LogMailerKeepsIdentityNumberOutOfLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := Notifier{
		Mailer:        mail.LogMailer{From: "booking@gozona.id", Logger: logger.FromZap(zap.New(core))},
		Documents:     docOpener{"ktp-1-abc.jpg": testJPEG},
		OperatorEmail: "admin@gozona.id",
	}
	rec := notifierRecord()
	rec.IdentityNumber = "3201999988887777"

	if err := n.NotifyOperator(context.Background(), rec, nil, 0, "ktp-1-abc.jpg"); err != nil {
		t.Fatalf("NotifyOperator returned error: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if strings.Contains(entry.Message, rec.IdentityNumber) {
		t.Fatalf("identity number in log message")
	}
	for key, v := range entry.ContextMap() {
		if strings.Contains(fmt.Sprint(v), rec.IdentityNumber) {
			t.Fatalf("identity number logged in field %q", key)
		}
	}
}
