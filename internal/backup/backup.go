// Package backup writes encrypted snapshots of the exported data set to
// S3-compatible storage and reads them back.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/chorejar/internal/model"
)

const keyPrefix = "chorejar/"

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Exporter produces the data set to back up.
type Exporter interface {
	ExportData(ctx context.Context) (*model.AppData, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"lastBackup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"inProgress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Object describes one stored backup.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Manager manages encrypted backups to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      S3Config
	client   s3Client
	status   Status
	callback StatusCallback

	exporter Exporter
	logger   *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager. It starts disabled unless cfg
// names a bucket and credentials.
func NewManager(cfg S3Config, exporter Exporter, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		cfg:      cfg,
		exporter: exporter,
		logger:   logger,
		callback: callback,
		now:      func() time.Time { return time.Now().UTC() },
		status:   Status{State: StateDisabled},
	}
	if cfg.complete() {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether uploads can be attempted.
func (m *Manager) Configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) target() (s3Client, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, "", fmt.Errorf("backup not configured: S3 credentials missing")
	}
	return m.client, m.cfg.Bucket, nil
}

// Start runs a backup every interval until ctx is done or Stop is called,
// pruning backups older than retention after each run.
func (m *Manager) Start(ctx context.Context, interval, retention time.Duration, passphrase string) {
	m.mu.Lock()
	if m.status.State == StateDisabled || interval <= 0 || passphrase == "" {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx, passphrase); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
					continue
				}
				if retention > 0 {
					if err := m.Cleanup(ctx, retention); err != nil {
						m.logger.Error("backup cleanup failed", "error", err)
					}
				}
			}
		}
	}()
}

// Stop gracefully stops the backup loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunNow exports, encrypts and uploads the data set, returning the object key.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (string, error) {
	if passphrase == "" {
		return "", &model.ValidationError{Field: "passphrase", Message: "is required"}
	}
	client, bucket, err := m.target()
	if err != nil {
		return "", err
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})
	fail := func(err error) (string, error) {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", err
	}

	data, err := m.exporter.ExportData(ctx)
	if err != nil {
		return fail(fmt.Errorf("export: %w", err))
	}
	enc, err := Encode(data, passphrase)
	if err != nil {
		return fail(fmt.Errorf("encode: %w", err))
	}

	now := m.now()
	key := fmt.Sprintf("%sbackup-%s.json.enc", keyPrefix, now.Format("2006-01-02T150405Z"))
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(enc),
		ContentLength: aws.Int64(int64(len(enc))),
	})
	if err != nil {
		return fail(fmt.Errorf("upload to s3: %w", err))
	}

	m.logger.Info("backup uploaded", "key", key, "bytes", len(enc))
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	return key, nil
}

// List returns the stored backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	client, bucket, err := m.target()
	if err != nil {
		return nil, err
	}

	var objects []Object
	var token *string
	for {
		out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(keyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, o := range out.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

// Fetch downloads and decrypts the backup stored under key.
func (m *Manager) Fetch(ctx context.Context, key, passphrase string) (*model.AppData, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return nil, &model.ValidationError{Field: "key", Message: "is not a backup key"}
	}
	client, bucket, err := m.target()
	if err != nil {
		return nil, err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	raw, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return Decode(raw, passphrase)
}

// Cleanup deletes backups older than retention.
func (m *Manager) Cleanup(ctx context.Context, retention time.Duration) error {
	client, bucket, err := m.target()
	if err != nil {
		return nil
	}

	objects, err := m.List(ctx)
	if err != nil {
		return err
	}

	before := m.now().Add(-retention)
	for _, o := range objects {
		if !o.LastModified.Before(before) {
			continue
		}
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(o.Key),
		}); err != nil {
			m.logger.Warn("delete old backup", "key", o.Key, "error", err)
		}
	}
	return nil
}
