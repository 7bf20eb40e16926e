package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/utils"
)

// RawBookingForm is the untrusted form as it arrived: every field a list of
// strings (multipart / urlencoded semantics) plus the optional upload.
type RawBookingForm struct {
	Values   map[string][]string
	Document *models.IdentityDocument
}

// field aliases, first match wins
var (
	aliasFullName       = []string{"nama", "fullName"}
	aliasEmail          = []string{"email"}
	aliasPhone          = []string{"telp", "phone"}
	aliasGuestCount     = []string{"tamu", "jumlahTamu", "guestCount", "numberOfPeople"}
	aliasDestination    = []string{"destination", "tujuan"}
	aliasTravelDate     = []string{"date", "travelDate", "tanggal", "bookingDate"}
	aliasBookingNotes   = []string{"catatan", "bookingNotes"}
	aliasFoodNotes      = []string{"catatanMakanan", "foodNotes"}
	aliasTerms          = []string{"setuju", "termsAccepted"}
	aliasOrders         = []string{"orders", "pesanan", "beverages"}
	aliasIdentityNumber = []string{"identityNumber", "noIdentitas"}
)

var (
	truthy = map[string]bool{"true": true, "on": true, "1": true, "yes": true, "ya": true}
	falsy  = map[string]bool{"false": true, "off": true, "0": true, "no": true, "tidak": true, "": true}
)

// parseFlag accepts only the closed truthy/falsy sets, case-insensitively.
func parseFlag(raw string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case truthy[v]:
		return true, true
	case falsy[v]:
		return false, true
	}
	return false, false
}

func (f RawBookingForm) lookup(keys []string) (string, bool) {
	for _, k := range keys {
		vals, ok := f.Values[k]
		if !ok || len(vals) == 0 {
			continue
		}
		// checkbox + hidden input pairs send the field twice; the last one is the checked state
		if v := utils.FirstNonEmpty(vals[len(vals)-1], vals[0]); v != "" {
			return v, true
		}
		return "", true
	}
	return "", false
}

func (f RawBookingForm) text(keys []string) string {
	v, _ := f.lookup(keys)
	return v
}

// NormalizeBooking trims and coerces the raw form into a BookingRequest.
// Values outside a field's accepted representations yield a ValidationError;
// missing required values are left for ValidateBooking.
func NormalizeBooking(f RawBookingForm) (models.BookingRequest, error) {
	req := models.BookingRequest{
		FullName:         utils.NormalizeSpace(f.text(aliasFullName)),
		Email:            strings.ToLower(f.text(aliasEmail)),
		Phone:            f.text(aliasPhone),
		TravelDate:       f.text(aliasTravelDate),
		Destination:      utils.NormalizeSpace(f.text(aliasDestination)),
		BookingNotes:     f.text(aliasBookingNotes),
		FoodNotes:        f.text(aliasFoodNotes),
		IdentityNumber:   f.text(aliasIdentityNumber),
		IdentityDocument: f.Document,
	}

	formType, err := f.formType()
	if err != nil {
		return models.BookingRequest{}, err
	}
	req.FormType = formType

	if raw := f.text(aliasGuestCount); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.BookingRequest{}, domain.ValidationError{Field: "guestCount", Msg: "jumlah tamu harus berupa angka", Err: err}
		}
		req.GuestCount = n
	}

	if raw, ok := f.lookup(aliasTerms); ok {
		accepted, valid := parseFlag(raw)
		if !valid {
			return models.BookingRequest{}, domain.ValidationError{Field: "termsAccepted", Msg: "nilai persetujuan tidak dikenali"}
		}
		req.TermsAccepted = accepted
	}

	orders, err := f.orders()
	if err != nil {
		return models.BookingRequest{}, err
	}
	req.OrderQuantities = orders

	return req, nil
}

func (f RawBookingForm) formType() (models.FormType, error) {
	if raw := strings.ToLower(f.text([]string{"formType"})); raw != "" {
		switch models.FormType(raw) {
		case models.FormLocal, models.FormInternational:
			return models.FormType(raw), nil
		}
		return "", domain.ValidationError{Field: "formType", Msg: "harus local atau international"}
	}
	if raw, ok := f.lookup([]string{"isInternational"}); ok {
		intl, valid := parseFlag(raw)
		if !valid {
			return "", domain.ValidationError{Field: "formType", Msg: "harus local atau international"}
		}
		if intl {
			return models.FormInternational, nil
		}
	}
	return models.FormLocal, nil
}

// orders accepts either a JSON object field (`orders={"kopi":2}`) or
// bracketed fields (`orders[kopi]=2`). null and [] mean no order. Quantities
// stay loosely typed; the order formatter decides what counts.
func (f RawBookingForm) orders() (map[string]any, error) {
	out := map[string]any{}

	if raw := f.text(aliasOrders); raw != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, domain.ValidationError{Field: "orders", Msg: "format pesanan tidak valid", Err: err}
		}
		if dec.More() {
			return nil, domain.ValidationError{Field: "orders", Msg: "format pesanan tidak valid"}
		}
		switch m := v.(type) {
		case nil:
		case []any:
			if len(m) > 0 {
				return nil, domain.ValidationError{Field: "orders", Msg: "pesanan harus berupa objek"}
			}
		case map[string]any:
			for k, q := range m {
				out[strings.TrimSpace(k)] = q
			}
		default:
			return nil, domain.ValidationError{Field: "orders", Msg: "pesanan harus berupa objek"}
		}
		return out, nil
	}

	for _, prefix := range aliasOrders {
		for key, vals := range f.Values {
			if !strings.HasPrefix(key, prefix+"[") || !strings.HasSuffix(key, "]") || len(vals) == 0 {
				continue
			}
			code := strings.TrimSpace(key[len(prefix)+1 : len(key)-1])
			if code != "" {
				out[code] = vals[len(vals)-1]
			}
		}
	}
	return out, nil
}
