package models

import "time"

// FormType membedakan form booking lokal dan internasional.
type FormType string

const (
	FormLocal         FormType = "local"
	FormInternational FormType = "international"
)

// IdentityDocument is the raw upload as received from the form.
type IdentityDocument struct {
	Data        []byte
	ContentType string
	FileName    string
}

// BookingRequest is the normalized (but not yet validated) form submission.
type BookingRequest struct {
	FormType       FormType
	FullName       string
	Email          string
	Phone          string
	TravelDate     string // YYYY-MM-DD
	GuestCount     int
	Destination    string
	BookingNotes   string
	FoodNotes      string
	IdentityNumber string
	TermsAccepted  bool

	// OrderQuantities keeps quantities as decoded from the form (json.Number,
	// string, float64...). The order formatter decides what counts.
	OrderQuantities map[string]any

	IdentityDocument *IdentityDocument
}

// OrderLine is one priced catalog item.
type OrderLine struct {
	Code      string `json:"code" bson:"code"`
	Name      string `json:"name" bson:"name"`
	Quantity  int64  `json:"quantity" bson:"quantity"`
	UnitPrice int64  `json:"unitPrice" bson:"unitPrice"`
	LineTotal int64  `json:"lineTotal" bson:"lineTotal"`
}

// StoredFileRef points at a persisted identity document.
type StoredFileRef struct {
	Path        string // relative to the uploads root, e.g. "ktp-1714550400000-3f2a9c1d7b4e.jpg"
	Size        int64
	ContentType string
	Checksum    string // blake2b-256, hex
}

// BookingRecord is the persisted booking. Created once, never updated.
type BookingRecord struct {
	ID             string   `json:"bookingId" bson:"bookingId"`
	FormType       FormType `json:"formType" bson:"formType"`
	FullName       string   `json:"fullName" bson:"fullName"`
	Email          string   `json:"email" bson:"email"`
	Phone          string   `json:"phone" bson:"phone"`
	TravelDate     string   `json:"travelDate" bson:"travelDate"`
	GuestCount     int      `json:"guestCount" bson:"guestCount"`
	Destination    string   `json:"destination" bson:"destination"`
	BookingNotes   string   `json:"bookingNotes" bson:"bookingNotes"`
	FoodNotes      string   `json:"foodNotes" bson:"foodNotes"`
	IdentityNumber string   `json:"identityNumber,omitempty" bson:"identityNumber,omitempty"`
	TermsAccepted  bool     `json:"termsAccepted" bson:"termsAccepted"`

	OrderLines []OrderLine `json:"orderLines" bson:"orderLines"`
	TotalPrice int64       `json:"totalPrice" bson:"totalPrice"`

	IdentityDocumentRef      string `json:"identityDocumentRef,omitempty" bson:"identityDocumentRef,omitempty"`
	IdentityDocumentChecksum string `json:"identityDocumentChecksum,omitempty" bson:"identityDocumentChecksum,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Public returns a copy without identity data, safe for any external caller.
func (r BookingRecord) Public() BookingRecord {
	out := r
	out.IdentityDocumentRef = ""
	out.IdentityDocumentChecksum = ""
	out.IdentityNumber = ""
	out.OrderLines = append([]OrderLine{}, r.OrderLines...)
	return out
}
