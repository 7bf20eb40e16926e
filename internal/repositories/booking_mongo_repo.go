package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo stores bookings in the `bookings` collection.
type MongoBookingRepo struct {
	collection *mongo.Collection
	Now        func() time.Time
}

func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{collection: db.Collection("bookings")}
}

// EnsureIndexes creates the unique index on bookingId.
func (r *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bookingId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_booking_id"),
	})
	return err
}

func (r *MongoBookingRepo) Create(ctx context.Context, rec models.BookingRecord) (models.BookingRecord, error) {
	return createWithRetry(ctx, rec, r.Now, func(ctx context.Context, rec models.BookingRecord) error {
		_, err := r.collection.InsertOne(ctx, rec)
		return err
	}, mongo.IsDuplicateKeyError)
}

func (r *MongoBookingRepo) FindByID(ctx context.Context, id string) (models.BookingRecord, error) {
	if !ValidBookingID(id) {
		return models.BookingRecord{}, notFound(id)
	}

	var rec models.BookingRecord
	err := r.collection.FindOne(ctx, bson.M{"bookingId": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.BookingRecord{}, notFound(id)
		}
		return models.BookingRecord{}, domain.PersistenceError{Op: "find booking", Err: err}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.OrderLines == nil {
		rec.OrderLines = []models.OrderLine{}
	}
	return rec, nil
}
