package models

import (
	"fmt"
	"time"
)

// Capture is one stored game capture. Its identity and metadata live entirely
// in the on-disk filename; there is no separate index.
type Capture struct {
	Filename         string    `json:"filename"`
	URL              string    `json:"url"`
	DownloadURL      string    `json:"download_url,omitempty"`
	Path             string    `json:"-"`
	Size             int64     `json:"size"`
	SizeKB           string    `json:"size_kb"`
	Created          time.Time `json:"created"`
	CreatedFormatted string    `json:"created_formatted"`
	IP               string    `json:"ip"`
	Score            string    `json:"score"`
}

// FormatKB renders a byte count as kibibytes with two decimals, the way the
// capture diagnostics and listings display sizes.
func FormatKB(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/1024)
}
