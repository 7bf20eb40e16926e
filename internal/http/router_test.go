package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	intconfig "github.com/LixUb/ZoNaTrip/internal/config"
	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/logger"
	"github.com/LixUb/ZoNaTrip/internal/mail"
	"github.com/LixUb/ZoNaTrip/internal/metrics"
	"github.com/LixUb/ZoNaTrip/internal/repositories"
	"github.com/LixUb/ZoNaTrip/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJPEG = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"), bytes.Repeat([]byte{0x11}, 64)...)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	uploads  string
	bookings string
}

func newTestServer(t *testing.T, mutate func(*intconfig.Env)) testServer {
	t.Helper()
	root := t.TempDir()
	env := intconfig.Env{
		MaxUploadBytes:     1 << 20,
		UploadsDir:         filepath.Join(root, "uploads"),
		BookingsDir:        filepath.Join(root, "bookings"),
		OperatorEmail:      "admin@gozona.id",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}
	if mutate != nil {
		mutate(&env)
	}

	log := logger.NewNop()
	m := metrics.New()
	docs := repositories.NewIdentityDocumentStore(env.UploadsDir, "ktp", env.MaxUploadBytes)
	notifier := services.Notifier{
		Mailer:        mail.LogMailer{From: "booking@gozona.id", Logger: log},
		Documents:     docs,
		OperatorEmail: env.OperatorEmail,
	}
	svc := services.NewBookingService(domain.DefaultPriceCatalog(), docs,
		repositories.FileBookingRepo{Dir: env.BookingsDir}, notifier, log, m,
		services.BookingServiceConfig{StoreTimeout: 5 * time.Second})

	return testServer{
		router:   NewRouter(Deps{Env: env, Logger: log, Metrics: m, Bookings: svc}),
		uploads:  env.UploadsDir,
		bookings: env.BookingsDir,
	}
}

func (s testServer) do(req *stdhttp.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file *filePart) *stdhttp.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(stdhttp.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func exampleFields() map[string]string {
	return map[string]string{
		"nama":           "Ani",
		"email":          "ani@x.com",
		"telp":           "0811",
		"tamu":           "2",
		"destination":    "Beach",
		"date":           "2025-05-01",
		"catatan":        "window seat",
		"catatanMakanan": "no shrimp",
		"setuju":         "true",
		"orders":         `{"kopi":2,"nasiGoreng":1}`,
	}
}

func jpegPart() *filePart {
	return &filePart{field: "fileIdentitas", name: "ktp.jpg", contentType: "image/jpeg", data: testJPEG}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestSubmitAndGetBooking(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(multipartRequest(t, "/api/booking", exampleFields(), jpegPart()))
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Booking berhasil disimpan", body["message"])
	id, _ := body["bookingId"].(string)
	require.True(t, repositories.ValidBookingID(id), id)

	data := body["data"].(map[string]any)
	assert.Equal(t, 55000.0, data["totalPrice"])
	assert.NotContains(t, data, "identityDocumentRef")

	for _, path := range []string{"/api/booking/" + id, "/api/bookings/" + id} {
		rec = s.do(httptest.NewRequest(stdhttp.MethodGet, path, nil))
		require.Equal(t, stdhttp.StatusOK, rec.Code, path)
		got := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, id, got["bookingId"])
		assert.NotContains(t, got, "identityDocumentRef")
		assert.NotContains(t, got, "identityDocumentChecksum")
	}

	assert.Equal(t, 1, countFiles(t, s.uploads))
	assert.Equal(t, 1, countFiles(t, s.bookings))
}

func TestSubmitBooking_LegacyPathAndEnglishFields(t *testing.T) {
	s := newTestServer(t, nil)
	fields := map[string]string{
		"fullName":      "Budi",
		"email":         "budi@x.com",
		"phone":         "0812",
		"guestCount":    "1",
		"travelDate":    "2025-06-01",
		"bookingNotes":  "aisle",
		"foodNotes":     "vegetarian",
		"termsAccepted": "on",
		"formType":      "international",
	}
	file := &filePart{field: "identityDocument", name: "passport.png", contentType: "image/png",
		data: append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{1}, 32)...)}

	rec := s.do(multipartRequest(t, "/submit-booking", fields, file))
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "international", data["formType"])
	assert.Equal(t, 0.0, data["totalPrice"])
	assert.Equal(t, []any{}, data["orderLines"])
}

func TestSubmitBooking_TermsNotAccepted(t *testing.T) {
	s := newTestServer(t, nil)
	fields := exampleFields()
	fields["setuju"] = "false"

	rec := s.do(multipartRequest(t, "/api/booking", fields, jpegPart()))
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "validation_error", body["code"])
	assert.NotEmpty(t, body["request_id"])
	assert.NotContains(t, body, "error")

	assert.Equal(t, 0, countFiles(t, s.uploads))
	assert.Equal(t, 0, countFiles(t, s.bookings))
}

func TestSubmitBooking_MissingDocument(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(multipartRequest(t, "/api/booking", exampleFields(), nil))
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec)["code"])
}

func TestSubmitBooking_DocumentRejected(t *testing.T) {
	s := newTestServer(t, func(e *intconfig.Env) { e.MaxUploadBytes = 256 })

	pdf := &filePart{field: "ktp", name: "ktp.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4 ...")}
	rec := s.do(multipartRequest(t, "/api/booking", exampleFields(), pdf))
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.InvalidFileKind), decode(t, rec)["code"])

	big := jpegPart()
	big.data = append(append([]byte{}, testJPEG...), bytes.Repeat([]byte{0}, 1024)...)
	rec = s.do(multipartRequest(t, "/api/booking", exampleFields(), big))
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.FileTooLarge), decode(t, rec)["code"])

	assert.Equal(t, 0, countFiles(t, s.uploads))
	assert.Equal(t, 0, countFiles(t, s.bookings))
}

func TestSubmitBooking_BodyOverLimit(t *testing.T) {
	s := newTestServer(t, func(e *intconfig.Env) { e.MaxUploadBytes = 256 })

	huge := jpegPart()
	huge.data = append(append([]byte{}, testJPEG...), bytes.Repeat([]byte{0}, 2<<20)...)
	rec := s.do(multipartRequest(t, "/api/booking", exampleFields(), huge))
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.FileTooLarge), decode(t, rec)["code"])

	assert.Equal(t, 0, countFiles(t, s.uploads))
	assert.Equal(t, 0, countFiles(t, s.bookings))
}

func TestSubmitBooking_JSONBodyNeedsMultipart(t *testing.T) {
	s := newTestServer(t, nil)
	payload := `{"fullName":"Budi","email":"budi@x.com","bookingDate":"2025-06-01","numberOfPeople":2,"beverages":[],"termsAccepted":true}`

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/bookings", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := s.do(req)

	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["code"])
	assert.Contains(t, body["message"], "multipart/form-data")
	assert.Equal(t, 0, countFiles(t, s.bookings))
}

func TestSubmitBooking_PersistenceFailure(t *testing.T) {
	for _, debug := range []bool{false, true} {
		s := newTestServer(t, func(e *intconfig.Env) {
			e.Debug = debug
			// a regular file where the bookings directory should be
			blocker := filepath.Join(t.TempDir(), "blocker")
			require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
			e.BookingsDir = blocker
		})

		rec := s.do(multipartRequest(t, "/api/booking", exampleFields(), jpegPart()))
		require.Equal(t, stdhttp.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Terjadi kesalahan server", body["message"])
		if debug {
			assert.Contains(t, body, "error")
		} else {
			assert.NotContains(t, body, "error")
		}
		assert.Equal(t, 0, countFiles(t, s.uploads), "orphaned document must be removed")
	}
}

func TestGetBooking_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	for _, id := range []string{"BK-20250501-000000-000000000000", "nope"} {
		rec := s.do(httptest.NewRequest(stdhttp.MethodGet, "/api/booking/"+id, nil))
		require.Equal(t, stdhttp.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "not found", body["message"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/health", "/api/health"} {
		rec := s.do(httptest.NewRequest(stdhttp.MethodGet, path, nil))
		require.Equal(t, stdhttp.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "OK", body["status"])
		_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
		assert.NoError(t, err)
	}

	rec := s.do(httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `zonatrip_http_requests_total{method="GET",route="/health",status="200"} 1`))
}

func TestUnknownRouteAndCORS(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(httptest.NewRequest(stdhttp.MethodGet, "/nope", nil))
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	req := httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = s.do(req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = s.do(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
