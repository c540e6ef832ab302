package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	SearchCounter       metric.Int64Counter
	SearchDuration      metric.Float64Histogram
	ExternalCallRetries metric.Int64Counter
	IngestDispatches    metric.Int64Counter
	ChunksIngested      metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("people-search-platform")

	searchCounter, err := meter.Int64Counter(
		"search.requests.total",
		metric.WithDescription("Total search requests"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.request.duration",
		metric.WithDescription("Search request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	externalCallRetries, err := meter.Int64Counter(
		"external.call.retries",
		metric.WithDescription("Retried attempts against the external model API"),
	)
	if err != nil {
		return nil, err
	}

	ingestDispatches, err := meter.Int64Counter(
		"ingest.dispatches.total",
		metric.WithDescription("Ingestion jobs dispatched to the worker"),
	)
	if err != nil {
		return nil, err
	}

	chunksIngested, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Chunks embedded and written to the graph"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		SearchCounter:       searchCounter,
		SearchDuration:      searchDuration,
		ExternalCallRetries: externalCallRetries,
		IngestDispatches:    ingestDispatches,
		ChunksIngested:      chunksIngested,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordSearch records one served search request
func (m *Metrics) RecordSearch(status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("search.status", status),
	}

	m.SearchCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.SearchDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordExternalRetry records a retried model API attempt
func (m *Metrics) RecordExternalRetry(operation string, statusCode int) {
	attrs := []attribute.KeyValue{
		attribute.String("external.operation", operation),
		attribute.Int("external.status_code", statusCode),
	}

	m.ExternalCallRetries.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordIngestDispatch records one dispatched ingestion job
func (m *Metrics) RecordIngestDispatch(accepted bool, fileCount int) {
	attrs := []attribute.KeyValue{
		attribute.Bool("ingest.accepted", accepted),
		attribute.Int("ingest.files", fileCount),
	}

	m.IngestDispatches.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordChunksIngested records chunks written during a job
func (m *Metrics) RecordChunksIngested(count int64, jobID string) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.job_id", jobID),
	}

	m.ChunksIngested.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
