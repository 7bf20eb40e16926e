package repositories

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testJPEG = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"), bytes.Repeat([]byte{0x11}, 64)...)
	testPNG  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0x22}, 64)...)
	testGIF  = append([]byte("GIF89a\x01\x00\x01\x00"), bytes.Repeat([]byte{0x33}, 64)...)
)

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestIdentityDocumentStore_StoresAcceptedKinds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewIdentityDocumentStore(dir, "ktp", 0)
	store.Now = func() time.Time { return time.UnixMilli(1714550400000) }

	cases := []struct {
		data []byte
		mime string
		name string
		ext  string
	}{
		{testJPEG, "image/jpeg", "KTP Ani.JPG", ".jpg"},
		{testPNG, "image/png", "passport.png", ".png"},
		{testGIF, "image/gif; charset=binary", "scan.gif", ".gif"},
	}
	for _, tc := range cases {
		ref, err := store.Store(context.Background(), tc.data, tc.mime, tc.name)
		require.NoError(t, err, tc.name)

		assert.True(t, strings.HasPrefix(ref.Path, "ktp-1714550400000-"), ref.Path)
		assert.True(t, strings.HasSuffix(ref.Path, tc.ext), ref.Path)
		assert.Len(t, ref.Checksum, 64)
		assert.Equal(t, int64(len(tc.data)), ref.Size)

		got, err := store.Open(ref.Path)
		require.NoError(t, err)
		assert.Equal(t, tc.data, got)
	}
	assert.Len(t, dirEntries(t, dir), 3)
}

func TestIdentityDocumentStore_NameIsTraversalFree(t *testing.T) {
	dir := t.TempDir()
	store := NewIdentityDocumentStore(dir, "ktp", 0)

	ref, err := store.Store(context.Background(), testJPEG, "image/jpeg", `..\..\windows/../../etc/evil.jpeg`)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(ref.Path), ref.Path)
	assert.NotContains(t, ref.Path, "..")
	assert.True(t, strings.HasSuffix(ref.Path, ".jpeg"))
	_, err = os.Stat(filepath.Join(dir, ref.Path))
	assert.NoError(t, err)
}

func TestIdentityDocumentStore_RejectsBeforeWriting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewIdentityDocumentStore(dir, "ktp", 128)

	cases := []struct {
		name   string
		data   []byte
		mime   string
		file   string
		reason domain.DocumentRejectReason
	}{
		{"pdf mime", testJPEG, "application/pdf", "ktp.jpg", domain.InvalidFileKind},
		{"exe extension", testJPEG, "image/jpeg", "ktp.exe", domain.InvalidFileKind},
		{"no extension", testJPEG, "image/jpeg", "ktp", domain.InvalidFileKind},
		{"spoofed content", []byte("%PDF-1.4 not an image at all"), "image/png", "ktp.png", domain.InvalidFileKind},
		{"empty", nil, "image/jpeg", "ktp.jpg", domain.InvalidFileKind},
		{"too large", append(testJPEG, bytes.Repeat([]byte{0}, 128)...), "image/jpeg", "ktp.jpg", domain.FileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Store(context.Background(), tc.data, tc.mime, tc.file)
			require.Error(t, err)
			assert.True(t, domain.IsDocumentRejected(err))
			assert.Equal(t, tc.reason, domain.DocumentRejectReasonOf(err))
		})
	}

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "uploads dir must not be created on rejection")
}

func TestIdentityDocumentStore_ConcurrentSameMillisecond(t *testing.T) {
	dir := t.TempDir()
	store := NewIdentityDocumentStore(dir, "ktp", 0)
	fixed := time.UnixMilli(1714550400000)
	store.Now = func() time.Time { return fixed }

	const n = 32
	refs := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := store.Store(context.Background(), testPNG, "image/png", "same.png")
			if err == nil {
				refs[i] = ref.Path
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, r := range refs {
		require.NotEmpty(t, r)
		require.False(t, seen[r], "duplicate name %s", r)
		seen[r] = true
	}
	assert.Len(t, dirEntries(t, dir), n)
}

func TestIdentityDocumentStore_OpenRejectsEscapes(t *testing.T) {
	store := NewIdentityDocumentStore(t.TempDir(), "ktp", 0)
	for _, ref := range []string{"", "../secret.jpg", "a/b.jpg", `a\b.jpg`, ".hidden"} {
		_, err := store.Open(ref)
		assert.Error(t, err, ref)
	}
}

func TestIdentityDocumentStore_Remove(t *testing.T) {
	dir := t.TempDir()
	store := NewIdentityDocumentStore(dir, "ktp", 0)

	ref, err := store.Store(context.Background(), testGIF, "image/gif", "a.gif")
	require.NoError(t, err)
	require.NoError(t, store.Remove(ref.Path))
	require.NoError(t, store.Remove(ref.Path))
	assert.Empty(t, dirEntries(t, dir))
}
