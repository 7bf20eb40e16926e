package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	intdb "github.com/LixUb/ZoNaTrip/internal/db"
	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// MySQLBookingRepo stores bookings in the MySQL `bookings` table.
type MySQLBookingRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

const bookingsDDL = `
CREATE TABLE IF NOT EXISTS bookings (
	booking_id VARCHAR(40) NOT NULL PRIMARY KEY,
	form_type VARCHAR(20) NOT NULL DEFAULT 'local',
	full_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(50) NOT NULL,
	travel_date DATE NOT NULL,
	guest_count INT NOT NULL,
	destination VARCHAR(255) NOT NULL DEFAULT '',
	booking_notes TEXT,
	food_notes TEXT,
	identity_number VARCHAR(64) NULL,
	terms_accepted TINYINT(1) NOT NULL,
	order_lines JSON NOT NULL,
	total_price BIGINT NOT NULL DEFAULT 0,
	identity_document_ref VARCHAR(255) NOT NULL,
	identity_document_checksum CHAR(64) NULL,
	created_at DATETIME(3) NOT NULL,
	KEY idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

// EnsureSchema creates the bookings table when missing and adds columns that
// older deployments do not have yet.
func (r MySQLBookingRepo) EnsureSchema(ctx context.Context) error {
	if r.DB == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if !intdb.HasTable(ctx, r.DB, "bookings") {
		if _, err := r.DB.ExecContext(ctx, bookingsDDL); err != nil {
			return fmt.Errorf("create bookings table: %w", err)
		}
		return nil
	}
	if !intdb.HasColumn(ctx, r.DB, "bookings", "identity_document_checksum") {
		if _, err := r.DB.ExecContext(ctx,
			`ALTER TABLE bookings ADD COLUMN identity_document_checksum CHAR(64) NULL`); err != nil {
			return fmt.Errorf("add identity_document_checksum: %w", err)
		}
	}
	return nil
}

func (r MySQLBookingRepo) Create(ctx context.Context, rec models.BookingRecord) (models.BookingRecord, error) {
	if r.DB == nil {
		return models.BookingRecord{}, domain.PersistenceError{Op: "create booking", Err: fmt.Errorf("db tidak tersedia")}
	}
	return createWithRetry(ctx, rec, r.Now, r.insert, isMySQLDuplicate)
}

func (r MySQLBookingRepo) insert(ctx context.Context, rec models.BookingRecord) error {
	lines, err := json.Marshal(rec.OrderLines)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO bookings (
			booking_id, form_type, full_name, email, phone, travel_date, guest_count,
			destination, booking_notes, food_notes, identity_number, terms_accepted,
			order_lines, total_price, identity_document_ref, identity_document_checksum, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, string(rec.FormType), rec.FullName, rec.Email, rec.Phone, rec.TravelDate, rec.GuestCount,
		rec.Destination, rec.BookingNotes, rec.FoodNotes, intdb.NullIfEmpty(rec.IdentityNumber), rec.TermsAccepted,
		string(lines), rec.TotalPrice, rec.IdentityDocumentRef, intdb.NullIfEmpty(rec.IdentityDocumentChecksum), rec.CreatedAt,
	)
	return err
}

func (r MySQLBookingRepo) FindByID(ctx context.Context, id string) (models.BookingRecord, error) {
	if !ValidBookingID(id) {
		return models.BookingRecord{}, notFound(id)
	}
	if r.DB == nil {
		return models.BookingRecord{}, domain.PersistenceError{Op: "find booking", Err: fmt.Errorf("db tidak tersedia")}
	}

	var (
		rec            models.BookingRecord
		formType       string
		travelDate     string
		bookingNotes   sql.NullString
		foodNotes      sql.NullString
		identityNumber sql.NullString
		checksum       sql.NullString
		lines          []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT booking_id, form_type, full_name, email, phone,
		       DATE_FORMAT(travel_date, '%Y-%m-%d'), guest_count, destination,
		       booking_notes, food_notes, identity_number, terms_accepted,
		       order_lines, total_price, identity_document_ref, identity_document_checksum, created_at
		FROM bookings
		WHERE booking_id=? LIMIT 1`, id).Scan(
		&rec.ID, &formType, &rec.FullName, &rec.Email, &rec.Phone,
		&travelDate, &rec.GuestCount, &rec.Destination,
		&bookingNotes, &foodNotes, &identityNumber, &rec.TermsAccepted,
		&lines, &rec.TotalPrice, &rec.IdentityDocumentRef, &checksum, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BookingRecord{}, notFound(id)
		}
		return models.BookingRecord{}, domain.PersistenceError{Op: "find booking", Err: err}
	}

	rec.FormType = models.FormType(formType)
	rec.TravelDate = travelDate
	rec.BookingNotes = bookingNotes.String
	rec.FoodNotes = foodNotes.String
	rec.IdentityNumber = identityNumber.String
	rec.IdentityDocumentChecksum = checksum.String
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.OrderLines = []models.OrderLine{}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &rec.OrderLines); err != nil {
			return models.BookingRecord{}, domain.PersistenceError{Op: "decode order lines", Err: err}
		}
	}
	return rec, nil
}

func isMySQLDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
