package services

import (
	"context"
	"sync"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/logger"
	"github.com/LixUb/ZoNaTrip/internal/metrics"
	"github.com/LixUb/ZoNaTrip/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// Stage is the position of one submission in the pipeline.
type Stage string

const (
	StageReceived       Stage = "received"
	StageValidated      Stage = "validated"
	StagePriced         Stage = "priced"
	StageDocumentStored Stage = "document_stored"
	StagePersisted      Stage = "persisted"
	StageNotified       Stage = "notified"
	StageResponded      Stage = "responded"

	StageRejected Stage = "rejected"
	// StageFailed is reached after persistence; the booking is kept.
	StageFailed Stage = "failed"
)

const (
	defaultStoreTimeout  = 5 * time.Second
	defaultNotifyTimeout = 15 * time.Second
)

// DocumentStore persists identity documents; see repositories.IdentityDocumentStore.
type DocumentStore interface {
	Store(ctx context.Context, data []byte, declaredMIME, originalName string) (models.StoredFileRef, error)
	Remove(ref string) error
}

// BookingNotifier sends the customer and operator mails.
type BookingNotifier interface {
	NotifyCustomer(ctx context.Context, rec models.BookingRecord, lines []models.OrderLine, total int64) error
	NotifyOperator(ctx context.Context, rec models.BookingRecord, lines []models.OrderLine, total int64, documentRef string) error
}

// SubmitResult is what the caller may see of an accepted booking.
type SubmitResult struct {
	Record models.BookingRecord // stripped of identity data
	Stage  Stage
}

type BookingServiceConfig struct {
	// AsyncNotify sends mails after Submit returns; Wait drains them.
	AsyncNotify   bool
	NotifyTimeout time.Duration
	StoreTimeout  time.Duration
}

// BookingService runs the booking submission pipeline.
type BookingService struct {
	catalog   *domain.PriceCatalog
	documents DocumentStore
	bookings  repositories.BookingStore
	notifier  BookingNotifier
	log       logger.Logger
	metrics   *metrics.Metrics
	cfg       BookingServiceConfig

	pending sync.WaitGroup
}

func NewBookingService(
	catalog *domain.PriceCatalog,
	documents DocumentStore,
	bookings repositories.BookingStore,
	notifier BookingNotifier,
	log logger.Logger,
	m *metrics.Metrics,
	cfg BookingServiceConfig,
) *BookingService {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &BookingService{
		catalog:   catalog,
		documents: documents,
		bookings:  bookings,
		notifier:  notifier,
		log:       log,
		metrics:   m,
		cfg:       cfg,
	}
}

// Submit normalizes, validates, prices and persists one booking, then
// dispatches notifications. Only validation, document and persistence
// failures are returned; notification failures are logged and counted.
func (s *BookingService) Submit(ctx context.Context, requestID string, form RawBookingForm) (SubmitResult, error) {
	log := logger.Event(s.log, requestID, "booking", "submit")
	start := time.Now()
	stage := StageReceived

	reject := func(err error) (SubmitResult, error) {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		log.Warn("booking rejected", "stage", string(stage), "error", err.Error())
		return SubmitResult{Stage: StageRejected}, err
	}

	req, err := NormalizeBooking(form)
	if err != nil {
		return reject(err)
	}
	if err := ValidateBooking(req); err != nil {
		return reject(err)
	}
	stage = StageValidated

	lines, total := domain.FormatOrder(s.catalog, req.OrderQuantities)
	stage = StagePriced

	doc := req.IdentityDocument
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	ref, err := s.documents.Store(storeCtx, doc.Data, doc.ContentType, doc.FileName)
	cancel()
	if err != nil {
		if domain.IsDocumentRejected(err) {
			return reject(err)
		}
		return s.fail(log, stage, err)
	}
	stage = StageDocumentStored

	rec := models.BookingRecord{
		FormType:                 req.FormType,
		FullName:                 req.FullName,
		Email:                    req.Email,
		Phone:                    req.Phone,
		TravelDate:               req.TravelDate,
		GuestCount:               req.GuestCount,
		Destination:              req.Destination,
		BookingNotes:             req.BookingNotes,
		FoodNotes:                req.FoodNotes,
		IdentityNumber:           req.IdentityNumber,
		TermsAccepted:            req.TermsAccepted,
		OrderLines:               lines,
		TotalPrice:               total,
		IdentityDocumentRef:      ref.Path,
		IdentityDocumentChecksum: ref.Checksum,
	}

	storeCtx, cancel = context.WithTimeout(ctx, s.cfg.StoreTimeout)
	created, err := s.bookings.Create(storeCtx, rec)
	cancel()
	if err != nil {
		if rmErr := s.documents.Remove(ref.Path); rmErr != nil {
			log.Error("failed to remove orphaned identity document", "document_ref", ref.Path, "error", rmErr.Error())
		}
		return s.fail(log, stage, err)
	}
	stage = StagePersisted
	s.metrics.Submissions.WithLabelValues(metrics.OutcomeAccepted).Inc()
	s.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	log.Info("booking persisted",
		"booking_id", created.ID,
		"total", created.TotalPrice,
		"order_lines", len(created.OrderLines),
	)

	log = log.With("booking_id", created.ID)
	if s.cfg.AsyncNotify {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			_ = s.notify(context.WithoutCancel(ctx), log, created)
		}()
		return SubmitResult{Record: created.Public(), Stage: StageResponded}, nil
	}

	if err := s.notify(ctx, log, created); err != nil {
		return SubmitResult{Record: created.Public(), Stage: StageFailed}, nil
	}
	return SubmitResult{Record: created.Public(), Stage: StageResponded}, nil
}

// fail ends a submission whose storage step broke. Causes that are not
// already persistence errors are wrapped so callers map them to 500.
func (s *BookingService) fail(log logger.Logger, stage Stage, err error) (SubmitResult, error) {
	s.metrics.Submissions.WithLabelValues(metrics.OutcomeFailed).Inc()
	log.Error("booking not stored", "stage", string(stage), "error", err.Error())
	if !domain.IsPersistence(err) {
		err = domain.PersistenceError{Op: string(stage), Err: err}
	}
	return SubmitResult{Stage: StageFailed}, err
}

// notify sends both mails concurrently, bounded by NotifyTimeout. Every
// failure is counted; the first one is returned.
func (s *BookingService) notify(ctx context.Context, log logger.Logger, rec models.BookingRecord) error {
	if s.notifier == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		return s.countFailure(log, RecipientCustomer,
			s.notifier.NotifyCustomer(ctx, rec, rec.OrderLines, rec.TotalPrice))
	})
	g.Go(func() error {
		return s.countFailure(log, RecipientOperator,
			s.notifier.NotifyOperator(ctx, rec, rec.OrderLines, rec.TotalPrice, rec.IdentityDocumentRef))
	})
	err := g.Wait()
	if err == nil {
		log.Info("booking notifications sent", "stage", string(StageNotified))
	}
	return err
}

func (s *BookingService) countFailure(log logger.Logger, recipient string, err error) error {
	if err == nil {
		return nil
	}
	s.metrics.NotificationFailures.WithLabelValues(recipient).Inc()
	log.Error("notification failed", "recipient", recipient, "error", err.Error())
	if !domain.IsNotification(err) {
		err = domain.NotificationError{Recipient: recipient, Err: err}
	}
	return err
}

// Get returns the stripped record for id.
func (s *BookingService) Get(ctx context.Context, id string) (models.BookingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rec, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return models.BookingRecord{}, err
	}
	return rec.Public(), nil
}

// Wait blocks until every async notification has finished or ctx is done.
func (s *BookingService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
