package repositories

import (
	"context"
	"regexp"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
)

// BookingStore persists booking records. Create must be durable when it
// returns nil; FindByID returns domain.NotFoundError for unknown IDs.
type BookingStore interface {
	Create(ctx context.Context, rec models.BookingRecord) (models.BookingRecord, error)
	FindByID(ctx context.Context, id string) (models.BookingRecord, error)
}

const createAttempts = 3

var bookingIDPattern = regexp.MustCompile(`^BK-\d{8}-\d{6}-[0-9a-f]{12}$`)

// NewBookingID builds "BK-<yyyymmdd>-<hhmmss>-<12 hex>" from now (UTC). The
// random tail keeps IDs apart when many bookings land in the same second.
func NewBookingID(now time.Time) string {
	return "BK-" + now.UTC().Format("20060102-150405") + "-" + randomHex(12)
}

// ValidBookingID reports whether id has the NewBookingID shape.
func ValidBookingID(id string) bool {
	return bookingIDPattern.MatchString(id)
}

// createWithRetry assigns ID and creation time, then calls insert. When insert
// reports a duplicate ID a fresh one is drawn.
func createWithRetry(
	ctx context.Context,
	rec models.BookingRecord,
	now func() time.Time,
	insert func(context.Context, models.BookingRecord) error,
	isDuplicate func(error) bool,
) (models.BookingRecord, error) {
	if now == nil {
		now = time.Now
	}
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		ts := now().UTC().Truncate(time.Millisecond)
		rec.ID = NewBookingID(ts)
		rec.CreatedAt = ts
		if rec.OrderLines == nil {
			rec.OrderLines = []models.OrderLine{}
		}

		err := insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		if !isDuplicate(err) {
			break
		}
	}
	return models.BookingRecord{}, domain.PersistenceError{Op: "create booking", Err: lastErr}
}

func notFound(id string) error {
	return domain.NotFoundError{Resource: "booking", ID: id}
}
