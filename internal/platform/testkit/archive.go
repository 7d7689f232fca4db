package testkit

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Entry is one file placed into a fixture archive
type Entry struct {
	Name string
	Data []byte
	// Store skips deflate so tests can corrupt payload bytes in place
	Store bool
}

// File is shorthand for a deflated Entry
func File(name string, data []byte) Entry { return Entry{Name: name, Data: data} }

// Zip builds an in-memory zip archive from entries, in order
func Zip(t testing.TB, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		method := zip.Deflate
		if e.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Base64 encodes b with the standard alphabet, as content messages carry it
func Base64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// ZipBase64 builds an archive and returns it base64-encoded
func ZipBase64(t testing.TB, entries ...Entry) string {
	t.Helper()
	return Base64(Zip(t, entries...))
}
