package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
)

// FileBookingRepo writes one JSON file per booking: <Dir>/<booking id>.json.
type FileBookingRepo struct {
	Dir string
	Now func() time.Time
}

func (r FileBookingRepo) Create(ctx context.Context, rec models.BookingRecord) (models.BookingRecord, error) {
	if err := os.MkdirAll(r.Dir, 0o750); err != nil {
		return models.BookingRecord{}, domain.PersistenceError{Op: "create booking", Err: err}
	}
	return createWithRetry(ctx, rec, r.Now, r.insert, func(err error) bool {
		return errors.Is(err, os.ErrExist)
	})
}

func (r FileBookingRepo) insert(ctx context.Context, rec models.BookingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return writeFileExclusive(r.Dir, rec.ID+".json", data)
}

func (r FileBookingRepo) FindByID(ctx context.Context, id string) (models.BookingRecord, error) {
	if !ValidBookingID(id) {
		return models.BookingRecord{}, notFound(id)
	}
	if err := ctx.Err(); err != nil {
		return models.BookingRecord{}, domain.PersistenceError{Op: "find booking", Err: err}
	}

	data, err := os.ReadFile(filepath.Join(r.Dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.BookingRecord{}, notFound(id)
		}
		return models.BookingRecord{}, domain.PersistenceError{Op: "find booking", Err: err}
	}

	var rec models.BookingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.BookingRecord{}, domain.PersistenceError{Op: "decode booking", Err: err}
	}
	return rec, nil
}
