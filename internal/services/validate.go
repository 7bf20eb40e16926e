package services

import (
	"errors"
	"reflect"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"

	"github.com/go-playground/validator/v10"
)

// bookingRules mirrors the required part of a BookingRequest.
type bookingRules struct {
	FullName   string `validate:"required,max=255" field:"fullName"`
	Email      string `validate:"required,email,max=255" field:"email"`
	Phone      string `validate:"required,max=50" field:"phone"`
	TravelDate string `validate:"required,datetime=2006-01-02" field:"travelDate"`
	GuestCount int    `validate:"gt=0" field:"guestCount"`

	BookingNotes string `validate:"required,max=2000" field:"bookingNotes"`
	FoodNotes    string `validate:"required,max=2000" field:"foodNotes"`
}

var bookingValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}()

var ruleMessages = map[string]string{
	"required": "wajib diisi",
	"email":    "format email tidak valid",
	"datetime": "format tanggal harus YYYY-MM-DD",
	"gt":       "harus lebih dari 0",
	"max":      "terlalu panjang",
}

// ValidateBooking checks a normalized request before any side effect.
func ValidateBooking(req models.BookingRequest) error {
	err := bookingValidator.Struct(bookingRules{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		TravelDate: req.TravelDate,
		GuestCount: req.GuestCount,

		BookingNotes: req.BookingNotes,
		FoodNotes:    req.FoodNotes,
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := ruleMessages[fe.Tag()]
			if msg == "" {
				msg = "tidak valid"
			}
			return domain.ValidationError{Field: fe.Field(), Msg: msg, Err: err}
		}
		return domain.ValidationError{Msg: "data booking tidak valid", Err: err}
	}

	if !req.TermsAccepted {
		return domain.ValidationError{Field: "termsAccepted", Msg: "syarat dan ketentuan harus disetujui"}
	}
	if req.IdentityDocument == nil {
		return domain.ValidationError{Field: "identityDocument", Msg: "file identitas wajib diunggah"}
	}
	return nil
}
