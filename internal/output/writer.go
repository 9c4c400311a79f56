package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"gp3sift/internal/logging"
	"gp3sift/internal/pricing/models"
)

const (
	defaultMaxRetries        = 3
	defaultRetryDelay        = 2 * time.Second
	defaultPartSize          = 5 * 1024 * 1024 // 5MB
	defaultConcurrentUploads = 5
	defaultOutputDir         = "data"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// UploadConfig holds upload configuration
type UploadConfig struct {
	PartSize        int64
	ConcurrentParts int
}

// Type represents the output type
type Type string

const (
	// FileSystem represents local filesystem output
	FileSystem Type = "filesystem"
	// S3 represents S3 bucket output; files are still written locally first
	S3 Type = "s3"
)

// ParseType validates an output type name
func ParseType(name string) (Type, error) {
	switch t := Type(name); t {
	case "", FileSystem:
		return FileSystem, nil
	case S3:
		return S3, nil
	default:
		return "", fmt.Errorf("unsupported output type: %s", name)
	}
}

// Config holds output configuration
type Config struct {
	Type Type
	// OutputDir receives one <account>_<region>_rds_output.csv per batch
	OutputDir string
	// OutputFile, when set, collects every batch into a single file
	OutputFile string
	S3Bucket   string
	S3Region   string
	// Session is used for uploads when Type is S3
	Session *session.Session
	Retry   *RetryConfig
	Upload  *UploadConfig
}

// newUploader is replaced in tests
var newUploader = func(sess *session.Session, cfg *UploadConfig) s3manageriface.UploaderAPI {
	return s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.ConcurrentParts
	})
}

// Writer writes estimate results to CSV files and optionally uploads them to S3
type Writer struct {
	config   Config
	mu       sync.Mutex
	started  bool // single output file truncated and header written
	uploader s3manageriface.UploaderAPI
	now      func() time.Time
}

// NewWriter creates a new output writer with default settings
func NewWriter(config Config) (*Writer, error) {
	// Set default retry config if not provided
	if config.Retry == nil {
		config.Retry = &RetryConfig{
			MaxRetries: defaultMaxRetries,
			RetryDelay: defaultRetryDelay,
		}
	}

	// Set default upload config if not provided
	if config.Upload == nil {
		config.Upload = &UploadConfig{
			PartSize:        defaultPartSize,
			ConcurrentParts: defaultConcurrentUploads,
		}
	}

	if config.Type == "" {
		config.Type = FileSystem
	}
	if config.OutputDir == "" {
		config.OutputDir = defaultOutputDir
	}

	w := &Writer{config: config, now: time.Now}

	if config.Type == S3 {
		if config.S3Bucket == "" || config.S3Region == "" {
			return nil, fmt.Errorf("S3 bucket and bucket region are required for s3 output")
		}
		if config.Session == nil {
			return nil, fmt.Errorf("an AWS session is required for s3 output")
		}
		w.uploader = newUploader(config.Session, config.Upload)
	}

	return w, nil
}

// BatchPath returns the per-batch file path <dir>/<account>_<region>_rds_output.csv
func (w *Writer) BatchPath(accountID, region string) string {
	return filepath.Join(w.config.OutputDir, fmt.Sprintf("%s_%s_rds_output.csv", accountID, region))
}

// Write stores the records of one account/region batch and returns the local
// path written. The content is rendered in full before the file is touched.
func (w *Writer) Write(ctx context.Context, accountID, region string, records []models.InstanceRecord) (string, error) {
	if w.config.OutputFile != "" {
		return w.appendToOutputFile(records)
	}

	data, err := Encode(records, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode results for %s/%s: %w", accountID, region, err)
	}

	filePath := w.BatchPath(accountID, region)
	if err := writeToFileSystem(filePath, data); err != nil {
		return "", err
	}

	if w.config.Type == S3 {
		if err := w.writeToS3WithRetry(ctx, w.objectKey(filePath), data); err != nil {
			return filePath, err
		}
	}

	return filePath, nil
}

// appendToOutputFile adds a batch to the single output file. The first
// batch of the run truncates the file and writes the header.
func (w *Writer) appendToOutputFile(records []models.InstanceRecord) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := Encode(records, !w.started)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !w.started {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if dir := filepath.Dir(w.config.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	f, err := os.OpenFile(w.config.OutputFile, flags, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", w.config.OutputFile, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", w.config.OutputFile, err)
	}
	w.started = true

	return w.config.OutputFile, nil
}

// Close uploads the single output file once every batch has been appended
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.config.Type != S3 || w.config.OutputFile == "" || !w.started {
		return nil
	}

	data, err := os.ReadFile(w.config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", w.config.OutputFile, err)
	}
	return w.writeToS3WithRetry(ctx, w.objectKey(w.config.OutputFile), data)
}

// objectKey returns the S3 key YYYY/MM/DD/<file name>
func (w *Writer) objectKey(filePath string) string {
	return path.Join(w.now().UTC().Format("2006/01/02"), filepath.Base(filePath))
}

// writeToFileSystem writes data to the local filesystem
func writeToFileSystem(filePath string, data []byte) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	return nil
}

// writeToS3WithRetry writes data to an S3 bucket with retry logic
func (w *Writer) writeToS3WithRetry(ctx context.Context, key string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt < w.config.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Warn("Retrying S3 upload", map[string]interface{}{
				"key":     key,
				"attempt": attempt + 1,
				"max":     w.config.Retry.MaxRetries,
				"error":   lastErr.Error(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.Retry.RetryDelay):
			}
		}

		if err := w.writeToS3(ctx, key, data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to upload to S3 after %d attempts: %w",
		w.config.Retry.MaxRetries, lastErr)
}

// writeToS3 writes data to an S3 bucket with progress tracking
func (w *Writer) writeToS3(ctx context.Context, key string, data []byte) error {
	reader := newProgressReader(bytes.NewReader(data), int64(len(data)), key)

	_, err := w.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:               aws.String(w.config.S3Bucket),
		Key:                  aws.String(key),
		Body:                 reader,
		ContentType:          aws.String("text/csv"),
		ServerSideEncryption: aws.String("aws:kms"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	logging.Info("Uploaded results to S3", map[string]interface{}{
		"bucket": w.config.S3Bucket,
		"key":    key,
		"size":   formatBytes(int64(len(data))),
	})
	return nil
}
