package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/focusfrenzy/capture-server/models"
	"github.com/focusfrenzy/capture-server/utils"
)

var (
	// ErrMissingPayload means no image bytes were supplied at all.
	ErrMissingPayload = errors.New("missing image payload")
	// ErrPayloadTooLarge means the image exceeds the configured ceiling.
	ErrPayloadTooLarge = errors.New("image payload too large")
)

// CaptureStore persists capture images in a flat directory, with all record
// metadata encoded in the filenames. A record exists iff its file exists.
type CaptureStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// New creates a store over dir. maxBytes is the upload ceiling. A nil clock
// defaults to time.Now; tests inject a fixed clock to pin filenames.
func New(dir string, maxBytes int64, clock func() time.Time) *CaptureStore {
	if clock == nil {
		clock = time.Now
	}
	return &CaptureStore{dir: dir, maxBytes: maxBytes, now: clock}
}

// Dir returns the storage directory path.
func (s *CaptureStore) Dir() string {
	return s.dir
}

// MaxBytes returns the upload ceiling in bytes.
func (s *CaptureStore) MaxBytes() int64 {
	return s.maxBytes
}

// Put writes one capture. The filename is derived from the sanitized ip, the
// raw score, and the current wall-clock millis; a same-millisecond write for
// identical metadata silently overwrites the previous file.
func (s *CaptureStore) Put(image []byte, ip, score string) (*models.Capture, error) {
	if len(image) == 0 {
		return nil, ErrMissingPayload
	}
	if int64(len(image)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes over %d limit", ErrPayloadTooLarge, len(image), s.maxBytes)
	}

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create capture directory: %w", err)
		}
		utils.Sugar.Infof("created captures directory %s", s.dir)
	}

	now := s.now()
	name := EncodeFilename(ip, score, now.UnixMilli())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return nil, fmt.Errorf("write capture file: %w", err)
	}

	return &models.Capture{
		Filename:         name,
		Path:             path,
		Size:             int64(len(image)),
		SizeKB:           models.FormatKB(int64(len(image))),
		Created:          now,
		CreatedFormatted: now.Format("2006-01-02 15:04:05"),
		IP:               SanitizeIP(ip),
		Score:            score,
	}, nil
}

// List enumerates all stored captures, newest first. A missing directory
// yields an empty slice. Entries that vanish mid-scan are skipped; names
// that fail to decode keep their entry with placeholder fields. The sort is
// recomputed on every call, there is no index.
func (s *CaptureStore) List() ([]models.Capture, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Capture{}, nil
		}
		return nil, fmt.Errorf("read capture directory: %w", err)
	}

	captures := make([]models.Capture, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// File deleted between ReadDir and stat; best effort, skip it.
			continue
		}
		ip, score := DecodeFilename(entry.Name())
		created := info.ModTime()
		captures = append(captures, models.Capture{
			Filename:         entry.Name(),
			Path:             filepath.Join(s.dir, entry.Name()),
			Size:             info.Size(),
			SizeKB:           models.FormatKB(info.Size()),
			Created:          created,
			CreatedFormatted: created.Format("2006-01-02 15:04:05"),
			IP:               ip,
			Score:            score,
		})
	}

	sort.Slice(captures, func(i, j int) bool {
		return captures[i].Created.After(captures[j].Created)
	})
	return captures, nil
}

// Count reports how many captures exist. Cheaper than List: it scans names
// only, no stat calls. A missing directory counts zero.
func (s *CaptureStore) Count() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read capture directory: %w", err)
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), fileExtension) {
			n++
		}
	}
	return n, nil
}

// DirExists reports whether the storage directory has been created yet.
// The listing endpoints branch on this before their first record is written.
func (s *CaptureStore) DirExists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}
