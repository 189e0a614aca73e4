package errbank

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/errbank/internal/classify"
	"github.com/fyrsmithlabs/errbank/internal/export"
	"github.com/fyrsmithlabs/errbank/internal/query"
	"github.com/fyrsmithlabs/errbank/internal/record"
	"github.com/fyrsmithlabs/errbank/internal/similarity"
	"github.com/fyrsmithlabs/errbank/internal/stats"
	"github.com/fyrsmithlabs/errbank/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/errbank/internal/errbank"

// service implements the Service interface.
type service struct {
	config     *Config
	store      *store.Store
	classifier *classify.Classifier
	engine     *similarity.Engine
	logger     *zap.Logger

	// Telemetry
	tracer         trace.Tracer
	meter          metric.Meter
	detectCounter  metric.Int64Counter
	cleanupCounter metric.Int64Counter

	mu     sync.RWMutex
	closed bool
}

// NewService creates a new error record service.
func NewService(cfg *Config, st *store.Store, logger *zap.Logger) (Service, error) {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	if st == nil {
		return nil, errors.New("record store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &service{
		config:     cfg,
		store:      st,
		classifier: classify.New(cfg.ClassifierOptions...),
		engine:     similarity.NewEngine(cfg.Similarity),
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		meter:      otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *service) initMetrics() {
	var err error

	s.detectCounter, err = s.meter.Int64Counter(
		"errbank.records.detected_total",
		metric.WithDescription("Total number of error records detected"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		s.logger.Warn("failed to create detect counter", zap.Error(err))
	}

	s.cleanupCounter, err = s.meter.Int64Counter(
		"errbank.records.cleaned_total",
		metric.WithDescription("Total number of error records removed by retention cleanup"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		s.logger.Warn("failed to create cleanup counter", zap.Error(err))
	}
}

// checkOpen returns an error when the service has been closed.
func (s *service) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("service is closed")
	}
	return nil
}

// Detect classifies a raw failure and persists the resulting record.
func (s *service) Detect(ctx context.Context, f classify.Failure, d classify.Detection) (*record.Record, error) {
	ctx, span := s.tracer.Start(ctx, "errbank.detect")
	defer span.End()

	span.SetAttributes(attribute.String("component", d.Component))

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rec := s.classifier.Classify(f, d)
	if rec.Context == nil {
		rec.Context = &record.Context{}
	}
	rec.Context.EventID = uuid.New().String()

	id, err := s.store.Add(rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to persist record: %w", err)
	}

	stored, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("persisted record vanished: %s", id)
	}

	if s.detectCounter != nil {
		s.detectCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("severity", string(stored.Severity)),
			attribute.String("category", string(stored.Category)),
		))
	}

	s.logger.Info("error detected",
		zap.String("id", stored.ID),
		zap.String("severity", string(stored.Severity)),
		zap.String("category", string(stored.Category)),
		zap.String("component", stored.Component),
	)

	span.SetAttributes(attribute.String("record_id", stored.ID))
	return stored, nil
}

// Get retrieves a record by ID.
func (s *service) Get(ctx context.Context, id string) (*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	return rec, nil
}

// Update merges fields into an existing record.
func (s *service) Update(ctx context.Context, id string, fields store.Fields) (*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.store.Update(id, fields)
}

// SetInvestigation attaches investigation findings.
func (s *service) SetInvestigation(ctx context.Context, id string, inv record.Investigation) (*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.store.SetInvestigation(id, inv)
}

// SetResolution attaches a resolution and marks the record resolved.
func (s *service) SetResolution(ctx context.Context, id string, res record.Resolution) (*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rec, err := s.store.SetResolution(id, res)
	if err != nil {
		return nil, err
	}
	s.logger.Info("record resolved",
		zap.String("id", id),
		zap.Duration("resolution_time", res.ResolutionTime),
	)
	return rec, nil
}

// SetPrevention attaches prevention actions.
func (s *service) SetPrevention(ctx context.Context, id string, prev record.Prevention) (*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.store.SetPrevention(id, prev)
}

// Search returns records matching the criteria, most recent first.
func (s *service) Search(ctx context.Context, c query.Criteria) ([]*record.Record, error) {
	ctx, span := s.tracer.Start(ctx, "errbank.search")
	defer span.End()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	results := query.Search(s.store.All(), c)
	span.SetAttributes(attribute.Int("result_count", len(results)))
	return results, nil
}

// SearchByDate returns records from the given calendar day.
func (s *service) SearchByDate(ctx context.Context, date time.Time) ([]*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return query.ByDate(s.store.All(), date), nil
}

// SearchByTimeRange returns records from a window ending now.
func (s *service) SearchByTimeRange(ctx context.Context, token string) ([]*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return query.ByTimeRange(s.store.All(), token), nil
}

// SearchSimilar ranks the store's records against the given record.
func (s *service) SearchSimilar(ctx context.Context, id string) ([]similarity.Match, error) {
	ctx, span := s.tracer.Start(ctx, "errbank.search_similar")
	defer span.End()

	span.SetAttributes(attribute.String("record_id", id))

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ref, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("search similar %s: %w", id, store.ErrNotFound)
	}

	matches := s.engine.Search(ref, s.store.All())
	span.SetAttributes(attribute.Int("match_count", len(matches)))
	return matches, nil
}

// Stats aggregates statistics over the records matching the criteria.
func (s *service) Stats(ctx context.Context, c query.Criteria) (*stats.Stats, error) {
	ctx, span := s.tracer.Start(ctx, "errbank.stats")
	defer span.End()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	filtered := query.Search(s.store.All(), c)
	result := stats.Compute(filtered, s.config.PatternLimit)
	span.SetAttributes(attribute.Int("total", result.Total))
	return result, nil
}

// Export renders the records matching the criteria in the given format.
func (s *service) Export(ctx context.Context, format string, c query.Criteria) (string, error) {
	ctx, span := s.tracer.Start(ctx, "errbank.export")
	defer span.End()

	span.SetAttributes(attribute.String("format", format))

	if err := s.checkOpen(); err != nil {
		return "", err
	}

	filtered := query.Search(s.store.All(), c)
	out, err := export.Export(filtered, format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

// Cleanup purges records older than maxAgeDays.
func (s *service) Cleanup(ctx context.Context, maxAgeDays int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "errbank.cleanup")
	defer span.End()

	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	removed, err := s.store.Cleanup(maxAgeDays)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	if s.cleanupCounter != nil && removed > 0 {
		s.cleanupCounter.Add(ctx, int64(removed))
	}
	span.SetAttributes(attribute.Int("removed", removed))
	return removed, nil
}

// Close closes the service.
func (s *service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return nil
}
