package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader io.Reader
	size   int64
	read   int64
	bar    *progressbar.ProgressBar
}

func newProgressReader(r io.Reader, size int64, key string) *progressReader {
	return &progressReader{
		reader: r,
		size:   size,
		bar: progressbar.NewOptions64(
			size,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(color.BlueString("Uploading %s", key)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		),
	}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += int64(n)
	if barErr := r.bar.Add(n); barErr != nil {
		fmt.Fprintf(os.Stderr, "Error updating progress bar: %v\n", barErr)
	}
	return n, err
}

// formatBytes formats bytes into human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
