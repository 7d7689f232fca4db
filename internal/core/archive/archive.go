// Package archive unpacks a base64-encoded TaskData zip and pairs every TimeLog
// structure description (TLGnnnnn.xml) with its binary (TLGnnnnn.bin).
package archive

import (
	"bytes"
	"encoding/base64"
	"io"
	"path"
	"sort"
	"strings"

	perr "taskdata/internal/platform/errors"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/cases"
)

// Limits bounds the work done for one archive; zero fields disable a check
type Limits struct {
	MaxArchiveBytes int64
	MaxEntries      int
	MaxEntryBytes   int64
	// MaxInflatedBytes caps the sum of all TimeLog entries after decompression
	MaxInflatedBytes int64
}

// Pair is one TimeLog: its structure description and binary payload
type Pair struct {
	// Name is the directory plus TLG stem of the first entry seen, e.g. "TASKDATA/TLG00001"
	Name          string
	StructureFile string
	BinaryFile    string
	Structure     []byte
	Binary        []byte
}

const op = "archive"

// Unpack decodes the base64 text and hands the bytes to UnpackZip
func Unpack(blob []byte, lim Limits) ([]Pair, error) {
	text := bytes.TrimSpace(blob)
	if lim.MaxArchiveBytes > 0 {
		if n := decodedLen(text); n > lim.MaxArchiveBytes {
			return nil, perr.WithOp(perr.ResourceLimitf("archive of %d bytes exceeds limit of %d", n, lim.MaxArchiveBytes), op)
		}
	}
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, text)
	if err != nil {
		return nil, perr.WithOp(perr.Wrap(err, perr.ErrorCodeDecode, "content is not valid base64"), op)
	}
	return UnpackZip(raw[:n], lim)
}

// decodedLen is the exact decoded size for unwrapped padded input and an upper bound otherwise
func decodedLen(text []byte) int64 {
	n := len(text)
	for n > 0 && text[n-1] == '=' {
		n--
	}
	return int64(base64.RawStdEncoding.DecodedLen(n))
}

type slot struct {
	name, xmlName, binName string
	xml, bin               []byte
}

// UnpackZip reads an already-decoded zip container. Directories and entries that
// are not TimeLog files are skipped. Either every TimeLog is paired and returned,
// sorted by name, or the call fails.
func UnpackZip(raw []byte, lim Limits) ([]Pair, error) {
	if lim.MaxArchiveBytes > 0 && int64(len(raw)) > lim.MaxArchiveBytes {
		return nil, perr.WithOp(perr.ResourceLimitf("archive of %d bytes exceeds limit of %d", len(raw), lim.MaxArchiveBytes), op)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, perr.WithOp(perr.Wrap(err, perr.ErrorCodeDecode, "content is not a zip container"), op)
	}
	if lim.MaxEntries > 0 && len(zr.File) > lim.MaxEntries {
		return nil, perr.WithOp(perr.ResourceLimitf("archive holds %d entries, limit is %d", len(zr.File), lim.MaxEntries), op)
	}

	fold := cases.Fold()
	slots := map[string]*slot{}
	var inflated int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ReplaceAll(f.Name, `\`, "/")
		dir, base := path.Split(name)
		stem, ext, ok := timelogName(fold.String(base))
		if !ok {
			continue
		}
		data, err := readEntry(f, lim, inflated)
		if err != nil {
			return nil, perr.WithField(perr.WithOp(err, op), f.Name)
		}
		inflated += int64(len(data))

		key := fold.String(dir) + stem
		s := slots[key]
		if s == nil {
			s = &slot{name: dir + strings.TrimSuffix(base, path.Ext(base))}
			slots[key] = s
		}
		switch ext {
		case ".xml":
			if s.xml != nil {
				return nil, collision(f.Name, s.xmlName)
			}
			s.xml, s.xmlName = data, f.Name
		case ".bin":
			if s.bin != nil {
				return nil, collision(f.Name, s.binName)
			}
			s.bin, s.binName = data, f.Name
		}
	}

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		s := slots[k]
		switch {
		case s.xml == nil:
			return nil, perr.WithField(perr.WithOp(perr.MalformedArchivef("time log binary %s has no structure description", s.binName), op), s.binName)
		case s.bin == nil:
			return nil, perr.WithField(perr.WithOp(perr.MalformedArchivef("structure description %s has no time log binary", s.xmlName), op), s.xmlName)
		}
		pairs = append(pairs, Pair{
			Name:          s.name,
			StructureFile: s.xmlName,
			BinaryFile:    s.binName,
			Structure:     s.xml,
			Binary:        s.bin,
		})
	}
	return pairs, nil
}

// timelogName splits a case-folded base name like "tlg00001.bin" into ("tlg00001", ".bin")
func timelogName(base string) (stem, ext string, ok bool) {
	ext = path.Ext(base)
	if ext != ".xml" && ext != ".bin" {
		return "", "", false
	}
	stem = strings.TrimSuffix(base, ext)
	digits := strings.TrimPrefix(stem, "tlg")
	if len(digits) == len(stem) || digits == "" {
		return "", "", false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", "", false
		}
	}
	return stem, ext, true
}

// readEntry inflates f, stopping at the per-entry bound or at what is left of the
// archive-wide budget once used bytes have already been inflated
func readEntry(f *zip.File, lim Limits, used int64) ([]byte, error) {
	if lim.MaxEntryBytes > 0 && f.UncompressedSize64 > uint64(lim.MaxEntryBytes) {
		return nil, perr.ResourceLimitf("entry declares %d bytes, limit is %d", f.UncompressedSize64, lim.MaxEntryBytes)
	}
	budget := int64(-1)
	if lim.MaxInflatedBytes > 0 {
		budget = lim.MaxInflatedBytes - used
		if f.UncompressedSize64 > uint64(budget) {
			return nil, inflatedLimit(lim.MaxInflatedBytes)
		}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeMalformedArchive, "cannot open entry")
	}
	defer rc.Close()

	readCap := int64(-1)
	if lim.MaxEntryBytes > 0 {
		readCap = lim.MaxEntryBytes
	}
	if budget >= 0 && (readCap < 0 || budget < readCap) {
		readCap = budget
	}
	var r io.Reader = rc
	if readCap >= 0 {
		r = io.LimitReader(rc, readCap+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeMalformedArchive, "cannot decompress entry")
	}
	if lim.MaxEntryBytes > 0 && int64(len(data)) > lim.MaxEntryBytes {
		return nil, perr.ResourceLimitf("entry inflates past %d bytes", lim.MaxEntryBytes)
	}
	if budget >= 0 && int64(len(data)) > budget {
		return nil, inflatedLimit(lim.MaxInflatedBytes)
	}
	return data, nil
}

func inflatedLimit(limit int64) error {
	return perr.ResourceLimitf("archive inflates past %d bytes", limit)
}

func collision(name, prev string) error {
	err := perr.MalformedArchivef("entries %s and %s map to the same time log", prev, name)
	return perr.WithField(perr.WithOp(err, op), name)
}
