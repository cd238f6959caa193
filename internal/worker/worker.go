package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/composer/pkg/queue"
	"github.com/aura-events/composer/pkg/storage"
)

// ErrTooLarge is returned when a source image exceeds storage.MaxCoverFileSize.
var ErrTooLarge = errors.New("cover image too large")

// Uploader stores a cover object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// Jobs is the queue side the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
	Backoff() time.Duration
}

// CoverResult is a stored cover image.
type CoverResult struct {
	JobID   string    `json:"job_id"`
	DraftID uuid.UUID `json:"draft_id"`
	URL     string    `json:"url"`
}

// DoneFunc hands a stored cover back to whoever owns the draft.
type DoneFunc func(ctx context.Context, res CoverResult) error

// CoverImageProcessor processes cover image jobs: download the source URL, upload to S3, report the URL.
type CoverImageProcessor struct {
	store  Uploader
	jobs   Jobs
	http   *http.Client
	onDone DoneFunc
	logger *zap.Logger
}

// NewCoverImageProcessor creates a cover image processor.
func NewCoverImageProcessor(store Uploader, jobs Jobs, onDone DoneFunc, logger *zap.Logger) *CoverImageProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoverImageProcessor{
		store:  store,
		jobs:   jobs,
		http:   &http.Client{Timeout: 60 * time.Second},
		onDone: onDone,
		logger: logger,
	}
}

// Process executes one cover image job.
func (p *CoverImageProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCoverImage {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.CoverImagePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	src, err := url.Parse(payload.SourceURL)
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") {
		return fmt.Errorf("invalid source url %q", payload.SourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status: %d", resp.StatusCode)
	}
	if resp.ContentLength > storage.MaxCoverFileSize {
		return ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if !storage.ValidateCoverType(contentType, src.Path) {
		return fmt.Errorf("unsupported cover type %q", contentType)
	}
	if _, ok := storage.AllowedCoverTypes[contentType]; !ok {
		contentType = storage.ContentTypeForFilename(src.Path)
	}
	key := storage.CoverKey(payload.DraftID.String(), job.ID+storage.AllowedCoverTypes[contentType])

	// Stream upload to S3 (no full buffer)
	body := &capReader{r: resp.Body, left: storage.MaxCoverFileSize}
	coverURL, err := p.store.Upload(ctx, key, contentType, body, resp.ContentLength)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	res := CoverResult{JobID: job.ID, DraftID: payload.DraftID, URL: coverURL}
	if p.onDone != nil {
		if err := p.onDone(ctx, res); err != nil {
			return fmt.Errorf("report cover: %w", err)
		}
	}
	p.logger.Info("cover image stored", zap.String("draft_id", payload.DraftID.String()), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CoverImageProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("cover worker stopping")
			return
		default:
		}

		job, _, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.wait(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.wait(ctx)
		}
	}
}

func (p *CoverImageProcessor) wait(ctx context.Context) {
	t := time.NewTimer(p.jobs.Backoff())
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// capReader fails once more than left bytes have been read.
type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.left -= int64(n)
	if c.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
