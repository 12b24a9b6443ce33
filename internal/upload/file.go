package upload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// CSVContentType is the only accepted dataset media type
const CSVContentType = "text/csv"

// File is a dataset attached to a submission. ContentType is the type the
// client declared (or, for local files, the sniffed type).
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// IsCSV reports whether the declared media type is text/csv. Parameters
// such as charset are ignored; the file name is never consulted.
func (f *File) IsCSV() bool {
	return MediaType(f.ContentType) == CSVContentType
}

// MediaType strips parameters and normalizes case
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// sniffLimit bounds how much of a local file is read for type detection
const sniffLimit = 64 << 10

// OpenLocal opens a file from disk and sniffs its media type from content.
// The caller closes the returned closer.
func OpenLocal(path string) (*File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	head, err := io.ReadAll(io.LimitReader(f, sniffLimit))
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	return &File{
		Name:        filepath.Base(path),
		ContentType: SniffBytes(path, head),
		Size:        info.Size(),
		Content:     f,
	}, f, nil
}

// SniffBytes detects a media type from content. mimetype only recognizes
// CSV with two or more columns and rows, so plain text in a file named
// .csv that reads as consistent CSV records is reported as text/csv, as a
// browser would label it.
func SniffBytes(name string, data []byte) string {
	detected := MediaType(mimetype.Detect(data).String())
	if detected == "text/plain" && strings.EqualFold(filepath.Ext(name), ".csv") && parsesAsCSV(data) {
		return CSVContentType
	}
	return detected
}

// parsesAsCSV reports whether data holds at least one record with a
// consistent field count. A truncated final line is tolerated.
func parsesAsCSV(data []byte) bool {
	r := csv.NewReader(bytes.NewReader(data))
	records := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			return records > 0
		}
		if err != nil {
			return records > 0 && len(data) >= sniffLimit
		}
		records++
	}
}
