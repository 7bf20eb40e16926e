package repositories

import (
	"context"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/domain"
	"github.com/LixUb/ZoNaTrip/internal/domain/models"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/blake2b"
)

// DefaultMaxDocumentBytes is the upload ceiling when none is configured (5 MiB).
const DefaultMaxDocumentBytes int64 = 5 << 20

var acceptedDocumentMIME = map[string]string{
	"image/jpeg":  "image/jpeg",
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
	"image/png":   "image/png",
	"image/gif":   "image/gif",
}

var acceptedDocumentExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// IdentityDocumentStore menyimpan foto KTP/paspor ke folder uploads.
// Safe for concurrent use: every stored file gets its own random name.
type IdentityDocumentStore struct {
	Dir      string
	Prefix   string
	MaxBytes int64

	Now func() time.Time
}

func NewIdentityDocumentStore(dir, prefix string, maxBytes int64) *IdentityDocumentStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "ktp"
	}
	return &IdentityDocumentStore{Dir: dir, Prefix: prefix, MaxBytes: maxBytes}
}

// Check validates size, declared MIME type and file-name extension without
// touching the disk. It is what Store runs first.
func (s *IdentityDocumentStore) Check(size int64, declaredMIME, originalName string) error {
	if size > s.maxBytes() {
		return domain.DocumentRejectedError{
			Reason: domain.FileTooLarge,
			Msg:    fmt.Sprintf("file identitas maksimal %d MB", s.maxBytes()>>20),
		}
	}
	if size <= 0 {
		return domain.DocumentRejectedError{Reason: domain.InvalidFileKind, Msg: "file identitas kosong"}
	}

	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(declaredMIME))
	if err != nil {
		return domain.DocumentRejectedError{Reason: domain.InvalidFileKind}
	}
	if _, ok := acceptedDocumentMIME[strings.ToLower(mediaType)]; !ok {
		return domain.DocumentRejectedError{Reason: domain.InvalidFileKind}
	}
	if _, ok := acceptedDocumentExt[documentExt(originalName)]; !ok {
		return domain.DocumentRejectedError{Reason: domain.InvalidFileKind}
	}
	return nil
}

// Store validates and persists an identity document. Nothing is written when
// validation fails.
func (s *IdentityDocumentStore) Store(ctx context.Context, data []byte, declaredMIME, originalName string) (models.StoredFileRef, error) {
	if err := s.Check(int64(len(data)), declaredMIME, originalName); err != nil {
		return models.StoredFileRef{}, err
	}

	sniffed := mimetype.Detect(data)
	contentType := ""
	for _, kind := range []string{"image/jpeg", "image/png", "image/gif"} {
		if sniffed.Is(kind) {
			contentType = kind
			break
		}
	}
	if contentType == "" {
		return models.StoredFileRef{}, domain.DocumentRejectedError{Reason: domain.InvalidFileKind}
	}

	if err := ctx.Err(); err != nil {
		return models.StoredFileRef{}, domain.PersistenceError{Op: "store document", Err: err}
	}

	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return models.StoredFileRef{}, domain.PersistenceError{Op: "store document", Err: err}
	}

	name := fmt.Sprintf("%s-%d-%s%s", s.Prefix, s.now().UnixMilli(), randomHex(12), documentExt(originalName))
	if err := writeFileAtomic(s.Dir, name, data); err != nil {
		return models.StoredFileRef{}, domain.PersistenceError{Op: "store document", Err: err}
	}

	sum := blake2b.Sum256(data)
	return models.StoredFileRef{
		Path:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

// Open reads a stored document back, e.g. for the operator attachment.
func (s *IdentityDocumentStore) Open(ref string) ([]byte, error) {
	p, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Remove deletes a stored document. Missing files are not an error.
func (s *IdentityDocumentStore) Remove(ref string) error {
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *IdentityDocumentStore) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref != filepath.Base(ref) || strings.ContainsAny(ref, `/\`) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("referensi dokumen tidak valid: %q", ref)
	}
	return filepath.Join(s.Dir, ref), nil
}

func (s *IdentityDocumentStore) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxDocumentBytes
}

func (s *IdentityDocumentStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// documentExt returns the lower-cased extension of the base name, treating
// both slash kinds as separators so client paths cannot leak through.
func documentExt(originalName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(originalName), `\`, "/"))
	return strings.ToLower(path.Ext(base))
}
