package webhook

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/config"
	"people-search-platform/internal/logger"
	"people-search-platform/models"
)

// ErrWorkerUnavailable is the distinct "temporarily_unavailable" condition:
// the worker rejected or could not be reached, and retrying the whole
// ingest-start call may succeed.
var ErrWorkerUnavailable = errors.New("ingestion worker unavailable")

// Dispatcher sends one signed ingestion-job webhook per call. It never
// retries the send itself; job ids are fresh per dispatch, so a retried
// ingest-start call is a new job to the worker. A circuit breaker
// short-circuits sends while the worker is known-bad, mapping to the same
// unavailable condition.
type Dispatcher struct {
	httpClient *http.Client
	endpoint   string
	secret     string
	options    models.ChunkingOptions
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// DispatcherOption overrides parts of the dispatcher (tests use these).
type DispatcherOption func(*Dispatcher)

func WithHTTPClient(h *http.Client) DispatcherOption {
	return func(d *Dispatcher) { d.httpClient = h }
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(cfg *config.Config, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   cfg.WorkerWebhookURL,
		secret:     cfg.WorkerSigningSecret,
		options: models.ChunkingOptions{
			ChunkTokens:   cfg.ChunkTokens,
			OverlapTokens: cfg.OverlapTokens,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "WorkerWebhook",
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch signs and sends the job manifest to the worker. Any 2xx worker
// response means accepted; everything else surfaces as
// ErrWorkerUnavailable. Exactly one send per call.
func (d *Dispatcher) Dispatch(ctx context.Context, uploadSessionID, s3Prefix string, files []models.IngestFile) (models.IngestStartResponse, error) {
	job := models.IngestJob{
		JobID:    d.newJobID(),
		S3Prefix: s3Prefix,
		Files:    files,
		Options:  d.options,
	}

	body, err := json.Marshal(job)
	if err != nil {
		return models.IngestStartResponse{}, fmt.Errorf("webhook: encoding job: %w", err)
	}

	timestamp := d.now().Unix()
	signature := Sign(d.secret, timestamp, body)

	_, err = d.breaker.Execute(func() (interface{}, error) {
		return nil, d.send(ctx, body, timestamp, signature)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: circuit open", ErrWorkerUnavailable)
		}
		logger.Warn("ingest dispatch rejected",
			"jobId", job.JobID,
			"uploadSessionId", uploadSessionID,
			"correlationId", ai.CorrelationID(ctx),
			"error", err.Error(),
		)
		return models.IngestStartResponse{}, err
	}

	logger.Info("ingest job dispatched",
		"jobId", job.JobID,
		"uploadSessionId", uploadSessionID,
		"fileCount", len(files),
		"correlationId", ai.CorrelationID(ctx),
	)
	return models.IngestStartResponse{JobID: job.JobID, Status: "queued"}, nil
}

func (d *Dispatcher) send(ctx context.Context, body []byte, timestamp int64, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TimestampHeader, fmt.Sprintf("%d", timestamp))
	req.Header.Set(SignatureHeader, signature)
	if id := ai.CorrelationID(ctx); id != "" {
		req.Header.Set("x-correlation-id", id)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}
	defer resp.Body.Close()

	// The worker's response body is not inspected; the status class alone
	// decides acceptance.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: worker returned status %d", ErrWorkerUnavailable, resp.StatusCode)
	}
	return nil
}

// newJobID builds a practically unique id: wall-clock milliseconds plus six
// random hex digits. Not cryptographically unique, and deliberately not
// derived from request content.
func (d *Dispatcher) newJobID() string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%d%s", d.now().UnixMilli(), hex.EncodeToString(suffix))
}
