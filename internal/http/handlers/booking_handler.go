package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/http/middleware"
	"github.com/LixUb/ZoNaTrip/internal/services"

	"github.com/gin-gonic/gin"
)

// form parts other than the document are small; this is their budget on top
// of the document limit
const formOverheadBytes = 1 << 20

var documentFields = []string{"fileIdentitas", "identityDocument", "ktp"}

// BookingService is what the handlers need from the pipeline.
type BookingService interface {
	Submit(ctx context.Context, requestID string, form services.RawBookingForm) (services.SubmitResult, error)
	Get(ctx context.Context, id string) (models.BookingRecord, error)
}

type BookingHandler struct {
	Service        BookingService
	MaxUploadBytes int64
	Errors         Errors
}

// SubmitBooking accepts the multipart booking form.
func (h BookingHandler) SubmitBooking(c *gin.Context) {
	limit := h.MaxUploadBytes + formOverheadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := h.readForm(c.Request)
	if err != nil {
		h.Errors.RespondDomainError(c, err)
		return
	}

	res, err := h.Service.Submit(c.Request.Context(), middleware.GetRequestID(c), form)
	if err != nil {
		h.Errors.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Booking berhasil disimpan",
		"bookingId": res.Record.ID,
		"data":      res.Record,
	})
}

// GetBooking returns the stripped record for :id.
func (h BookingHandler) GetBooking(c *gin.Context) {
	rec, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Errors.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

func (h BookingHandler) readForm(r *http.Request) (services.RawBookingForm, error) {
	if isJSON(r.Header.Get("Content-Type")) {
		return services.RawBookingForm{}, domain.ValidationError{
			Field: "contentType",
			Msg:   "booking harus dikirim sebagai multipart/form-data beserta file identitas",
		}
	}

	err := r.ParseMultipartForm(32 << 20)
	switch {
	case err == nil:
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return services.RawBookingForm{}, formError(err)
		}
	default:
		return services.RawBookingForm{}, formError(err)
	}

	form := services.RawBookingForm{Values: map[string][]string(r.PostForm)}
	if r.MultipartForm == nil {
		return form, nil
	}
	for _, key := range documentFields {
		files := r.MultipartForm.File[key]
		if len(files) == 0 {
			continue
		}
		doc, err := h.readDocument(files[0])
		if err != nil {
			return services.RawBookingForm{}, err
		}
		form.Document = doc
		break
	}
	return form, nil
}

// readDocument reads at most MaxUploadBytes+1 so the store can tell an
// oversized upload apart without buffering all of it.
func (h BookingHandler) readDocument(fh *multipart.FileHeader) (*models.IdentityDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, domain.InternalError{Msg: "gagal membaca file identitas", Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.MaxUploadBytes+1))
	if err != nil {
		return nil, domain.InternalError{Msg: "gagal membaca file identitas", Err: err}
	}
	return &models.IdentityDocument{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		FileName:    fh.Filename,
	}, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.DocumentRejectedError{Reason: domain.FileTooLarge}
	}
	return domain.ValidationError{Msg: "form tidak valid", Err: err}
}
