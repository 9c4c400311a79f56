package output

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gp3sift/internal/pricing/models"
)

type mockUploader struct {
	mock.Mock
	s3manageriface.UploaderAPI
	mu     sync.Mutex
	bodies map[string]string
}

func (m *mockUploader) UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.bodies == nil {
		m.bodies = make(map[string]string)
	}
	m.bodies[*input.Key] = string(body)
	m.mu.Unlock()

	args := m.Called(*input.Bucket, *input.Key)
	if out := args.Get(0); out != nil {
		return out.(*s3manager.UploadOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func io1Record() models.InstanceRecord {
	return models.InstanceRecord{
		Config: models.InstanceConfig{
			AccountID:     "123456789012",
			Identifier:    "orders-db",
			Region:        "us-east-1",
			InstanceClass: "db.r5.large",
			DBName:        aws.String("orders"),
			Engine:        "postgres",
			MultiAZ:       boolPtr(false),
			VolumeType:    models.VolumeTypeIO1,
			StorageGB:     500,
			IOPS:          int64Ptr(10000),
		},
		Usage: models.Usage{
			FreeStorageGB:   models.Measured(123.45),
			WriteIOPS:       models.Measured(0),
			ReadIOPS:        models.Measured(812),
			WriteThroughput: models.Measured(1048576),
			ReadThroughput:  models.Measured(2097152),
		},
		Projected: models.ProjectedConfig{IOPS: 12000, Throughput: 500},
		Costs: models.CostResult{
			Current:   models.Amount(decimal.RequireFromString("1062.5")),
			Projected: models.Amount(decimal.RequireFromString("144.5")),
		},
	}
}

func gp2Record() models.InstanceRecord {
	return models.InstanceRecord{
		Config: models.InstanceConfig{
			AccountID:     "123456789012",
			Identifier:    "legacy-db",
			Region:        "us-east-1",
			InstanceClass: "db.t3.medium",
			Engine:        "mysql",
			VolumeType:    "gp2",
			StorageGB:     100,
		},
		Projected: models.ProjectedConfig{Reason: models.ReasonNotIO1},
		Costs: models.CostResult{
			Current:   models.NotApplicable(models.ReasonNotIO1),
			Projected: models.NotApplicable(models.ReasonNotIO1),
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRow(t *testing.T) {
	tests := []struct {
		name   string
		record models.InstanceRecord
		want   []string
	}{
		{
			name:   "io1 instance with all values",
			record: io1Record(),
			want: []string{
				"orders-db", "us-east-1", "db.r5.large", "orders", "postgres", "false", "io1",
				"500", "NaN", "10000", "123.45", "0", "812", "1048576", "2097152",
				"12000", "500", "1062.50", "144.50", "",
			},
		},
		{
			name:   "non io1 instance",
			record: gp2Record(),
			want: []string{
				"legacy-db", "us-east-1", "db.t3.medium", "NaN", "mysql", "NaN", "gp2",
				"100", "NaN", "NaN", "NaN", "NaN", "NaN", "NaN", "NaN",
				"NaN", "NaN", "NaN", "NaN", "volume-not-io1;metric-unavailable",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Row(tt.record)
			require.Len(t, got, len(Header))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowUndeterminedProjection(t *testing.T) {
	r := io1Record()
	r.Projected = models.Undetermined()
	r.Costs.Projected = models.NotApplicable(models.ReasonUndeterminedProvisioning)

	got := Row(r)
	assert.Equal(t, "NaN", got[15])
	assert.Equal(t, "NaN", got[16])
	assert.Equal(t, "1062.50", got[17])
	assert.Equal(t, "NaN", got[18])
	assert.Equal(t, "gp3-undetermined", got[19])
}

func TestWriterPerBatchFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{OutputDir: dir})
	require.NoError(t, err)

	path, err := w.Write(context.Background(), "123456789012", "us-east-1", []models.InstanceRecord{io1Record(), gp2Record()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "123456789012_us-east-1_rds_output.csv"), path)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "orders-db", rows[1][0])
	assert.Equal(t, "legacy-db", rows[2][0])

	path, err = w.Write(context.Background(), "123456789012", "eu-west-1", []models.InstanceRecord{gp2Record()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "123456789012_eu-west-1_rds_output.csv"), path)
	assert.Len(t, readCSV(t, path), 2)
}

func TestWriterSingleOutputFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out", "fleet.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte("stale,content\n"), 0644))

	w, err := NewWriter(Config{OutputFile: file})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Write(context.Background(), "123456789012", "us-east-1", []models.InstanceRecord{io1Record()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows := readCSV(t, file)
	require.Len(t, rows, 5)
	assert.Equal(t, Header, rows[0])
	for _, row := range rows[1:] {
		assert.Equal(t, "orders-db", row[0])
	}
}

func TestNewWriterS3Validation(t *testing.T) {
	_, err := NewWriter(Config{Type: S3, S3Region: "us-east-1"})
	assert.Error(t, err)

	_, err = NewWriter(Config{Type: S3, S3Bucket: "bucket", S3Region: "us-east-1"})
	assert.Error(t, err)
}

func testS3Writer(t *testing.T, cfg Config, uploader *mockUploader) *Writer {
	t.Helper()

	original := newUploader
	newUploader = func(*session.Session, *UploadConfig) s3manageriface.UploaderAPI { return uploader }
	t.Cleanup(func() { newUploader = original })

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String("us-east-1"),
		Credentials: credentials.NewStaticCredentials("id", "secret", ""),
	})
	require.NoError(t, err)

	cfg.Type = S3
	cfg.S3Bucket = "reports"
	cfg.S3Region = "us-east-1"
	cfg.Session = sess
	cfg.Retry = &RetryConfig{MaxRetries: 3, RetryDelay: time.Millisecond}

	w, err := NewWriter(cfg)
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }
	return w
}

func TestWriterUploadsBatchToS3(t *testing.T) {
	uploader := &mockUploader{}
	key := "2026/03/09/123456789012_us-east-1_rds_output.csv"
	uploader.On("UploadWithContext", "reports", key).Return(&s3manager.UploadOutput{}, nil).Once()

	w := testS3Writer(t, Config{OutputDir: t.TempDir()}, uploader)

	path, err := w.Write(context.Background(), "123456789012", "us-east-1", []models.InstanceRecord{io1Record()})
	require.NoError(t, err)

	local, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(local), uploader.bodies[key])
	uploader.AssertExpectations(t)
}

func TestWriterRetriesS3Upload(t *testing.T) {
	uploader := &mockUploader{}
	key := "2026/03/09/123456789012_us-east-1_rds_output.csv"
	uploader.On("UploadWithContext", "reports", key).Return(nil, errors.New("connection reset")).Twice()
	uploader.On("UploadWithContext", "reports", key).Return(&s3manager.UploadOutput{}, nil).Once()

	w := testS3Writer(t, Config{OutputDir: t.TempDir()}, uploader)

	_, err := w.Write(context.Background(), "123456789012", "us-east-1", []models.InstanceRecord{io1Record()})
	require.NoError(t, err)
	uploader.AssertNumberOfCalls(t, "UploadWithContext", 3)
}

func TestWriterS3UploadExhaustsRetries(t *testing.T) {
	uploader := &mockUploader{}
	uploader.On("UploadWithContext", "reports", mock.Anything).Return(nil, errors.New("access denied"))

	w := testS3Writer(t, Config{OutputDir: t.TempDir()}, uploader)

	_, err := w.Write(context.Background(), "123456789012", "us-east-1", []models.InstanceRecord{io1Record()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestWriterCloseUploadsSingleFile(t *testing.T) {
	uploader := &mockUploader{}
	uploader.On("UploadWithContext", "reports", "2026/03/09/fleet.csv").Return(&s3manager.UploadOutput{}, nil).Once()

	file := filepath.Join(t.TempDir(), "fleet.csv")
	w := testS3Writer(t, Config{OutputFile: file}, uploader)

	require.NoError(t, w.Close(context.Background()))
	uploader.AssertNotCalled(t, "UploadWithContext", mock.Anything, mock.Anything)

	_, err := w.Write(context.Background(), "123456789012", "us-east-1", []models.InstanceRecord{io1Record()})
	require.NoError(t, err)
	_, err = w.Write(context.Background(), "210987654321", "eu-west-1", []models.InstanceRecord{gp2Record()})
	require.NoError(t, err)
	uploader.AssertNotCalled(t, "UploadWithContext", mock.Anything, mock.Anything)

	require.NoError(t, w.Close(context.Background()))
	uploader.AssertExpectations(t)
	assert.Len(t, readCSV(t, file), 3)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, FileSystem, typ)

	typ, err = ParseType("s3")
	require.NoError(t, err)
	assert.Equal(t, S3, typ)

	_, err = ParseType("gcs")
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "5.0 MB", formatBytes(5*1024*1024))
}
