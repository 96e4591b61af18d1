// Package archive reads CodeBuild site archives and maps their entries to
// destination keys in the deploy bucket.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/savaki/site-deployer/internal/errors"
)

// Archive is an in-memory zip archive
type Archive struct {
	reader *zip.Reader
}

// Entry is a single file or directory marker in the archive
type Entry struct {
	Name string // Path as stored in the archive
	Key  string // Destination key with the site root removed
	Dir  bool   // Directory marker, never uploaded
	Size uint64 // Uncompressed size

	file *zip.File
}

// Upload describes an object the archive would produce in the deploy bucket
type Upload struct {
	Key         string `yaml:"key"`
	ContentType string `yaml:"content_type"`
	Size        uint64 `yaml:"size"`
}

// Open reads the zip archive held in data
func Open(data []byte) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidArchive, err)
	}
	return &Archive{reader: reader}, nil
}

// Entries returns every entry in archive order with destination keys computed
// against siteRoot. Entries are safe to Read concurrently.
func (a *Archive) Entries(siteRoot string) []Entry {
	entries := make([]Entry, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		entries = append(entries, Entry{
			Name: f.Name,
			Key:  DestinationKey(siteRoot, f.Name),
			Dir:  f.FileInfo().IsDir(),
			Size: f.UncompressedSize64,
			file: f,
		})
	}
	return entries
}

// Read returns the decompressed contents of the entry
func (e Entry) Read() ([]byte, error) {
	if e.file == nil {
		return nil, fmt.Errorf("%w: entry %s has no backing file", errors.ErrInvalidArchive, e.Name)
	}

	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Name, err)
	}
	return data, nil
}

// DestinationKey strips the leading "{siteRoot}/" from name. Names outside the
// site root are returned unchanged.
func DestinationKey(siteRoot, name string) string {
	prefix := strings.Trim(siteRoot, "/") + "/"
	return strings.TrimPrefix(name, prefix)
}

// Plan lists the uploads the archive produces without reading content unless
// sniff is set.
func (a *Archive) Plan(siteRoot string, sniff bool) ([]Upload, error) {
	var uploads []Upload
	for _, entry := range a.Entries(siteRoot) {
		if entry.Dir {
			continue
		}

		var data []byte
		if sniff {
			content, err := entry.Read()
			if err != nil {
				return nil, err
			}
			data = content
		}

		uploads = append(uploads, Upload{
			Key:         entry.Key,
			ContentType: ContentType(entry.Key, data, sniff),
			Size:        entry.Size,
		})
	}
	return uploads, nil
}
