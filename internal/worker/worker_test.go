package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/composer/pkg/queue"
)

type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (m *memUploader) Upload(ctx context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.objects[key] = b
	m.types[key] = contentType
	return "https://cdn.test/" + key, nil
}

type chanJobs struct {
	ch      chan *queue.Job
	mu      sync.Mutex
	retried []*queue.Job
}

func (c *chanJobs) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case j := <-c.ch:
		return j, queue.QueueCovers, nil
	}
}

func (c *chanJobs) Retry(_ context.Context, job *queue.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	job.Attempt++
	c.retried = append(c.retried, job)
	return nil
}

func (c *chanJobs) Backoff() time.Duration { return time.Millisecond }

func coverJob(t *testing.T, draftID uuid.UUID, src string) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeCoverImage, queue.CoverImagePayload{DraftID: draftID, SourceURL: src})
	require.NoError(t, err)
	return job
}

func imageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProcess_StoresCoverAndReportsURL(t *testing.T) {
	srv := imageServer(t, "image/png", []byte("png-bytes"))
	up := &memUploader{}
	var got CoverResult
	p := NewCoverImageProcessor(up, &chanJobs{}, func(_ context.Context, res CoverResult) error {
		got = res
		return nil
	}, zaptest.NewLogger(t))

	draftID := uuid.New()
	job := coverJob(t, draftID, srv.URL+"/cover.png")
	require.NoError(t, p.Process(context.Background(), job))

	key := "covers/" + draftID.String() + "/" + job.ID + ".png"
	assert.Equal(t, []byte("png-bytes"), up.objects[key])
	assert.Equal(t, "image/png", up.types[key])
	assert.Equal(t, CoverResult{JobID: job.ID, DraftID: draftID, URL: "https://cdn.test/" + key}, got)
}

func TestProcess_FallsBackToExtensionType(t *testing.T) {
	srv := imageServer(t, "application/octet-stream", []byte("jpg"))
	up := &memUploader{}
	p := NewCoverImageProcessor(up, &chanJobs{}, nil, zaptest.NewLogger(t))

	job := coverJob(t, uuid.New(), srv.URL+"/photo.jpeg")
	require.NoError(t, p.Process(context.Background(), job))
	for _, ct := range up.types {
		assert.Equal(t, "image/jpeg", ct)
	}
}

func TestProcess_Rejects(t *testing.T) {
	srv := imageServer(t, "text/html", []byte("<html>"))
	p := NewCoverImageProcessor(&memUploader{}, &chanJobs{}, nil, zaptest.NewLogger(t))

	tests := []struct {
		name string
		job  *queue.Job
	}{
		{"unsupported type", coverJob(t, uuid.New(), srv.URL+"/page")},
		{"not found", coverJob(t, uuid.New(), srv.URL+"/missing.png")},
		{"bad scheme", coverJob(t, uuid.New(), "file:///etc/passwd")},
		{"wrong job type", &queue.Job{ID: "x", Type: "other", Payload: json.RawMessage(`{}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, p.Process(context.Background(), tt.job))
		})
	}
}

func TestProcess_TooLarge(t *testing.T) {
	big := bytes.Repeat([]byte{'x'}, 10*1024*1024+1)
	srv := imageServer(t, "image/png", big)
	p := NewCoverImageProcessor(&memUploader{}, &chanJobs{}, nil, zaptest.NewLogger(t))

	err := p.Process(context.Background(), coverJob(t, uuid.New(), srv.URL+"/big.png"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRun_RetriesFailedJobs(t *testing.T) {
	srv := imageServer(t, "image/png", []byte("png"))
	jobs := &chanJobs{ch: make(chan *queue.Job, 2)}
	done := make(chan CoverResult, 1)
	p := NewCoverImageProcessor(&memUploader{err: errors.New("s3 down")}, jobs, func(_ context.Context, res CoverResult) error {
		done <- res
		return nil
	}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(stopped)
	}()

	jobs.ch <- coverJob(t, uuid.New(), srv.URL+"/a.png")
	require.Eventually(t, func() bool {
		jobs.mu.Lock()
		defer jobs.mu.Unlock()
		return len(jobs.retried) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	assert.Empty(t, done)
	assert.Equal(t, 1, jobs.retried[0].Attempt)
}
