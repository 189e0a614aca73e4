package errbank

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/errbank/internal/classify"
	"github.com/fyrsmithlabs/errbank/internal/query"
	"github.com/fyrsmithlabs/errbank/internal/record"
	"github.com/fyrsmithlabs/errbank/internal/store"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "errors.json"), nil)
	require.NoError(t, err)
	svc, err := NewService(nil, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.Error(t, err)
}

func TestDetect_ClassifiesAndPersists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Detect(ctx,
		classify.Failure{Message: "Connection refused: timeout"},
		classify.Detection{Component: "gateway", Environment: "production"},
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rec.ID, "ERR-"))
	assert.Equal(t, record.SeverityHigh, rec.Severity)
	assert.Equal(t, record.CategoryConnection, rec.Category)
	assert.Equal(t, record.StatusDetected, rec.Status)
	assert.Equal(t, "gateway", rec.Component)
	assert.Equal(t, "CONNECTION_REFUSED_TIMEOUT", rec.ErrorCode)
	require.NotNil(t, rec.Context)
	assert.NotEmpty(t, rec.Context.EventID)

	// The record must be retrievable after Detect returns.
	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "ERR-2026-999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLifecycle_InvestigateResolvePrevent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Detect(ctx, classify.Failure{Message: "boom"}, classify.Detection{})
	require.NoError(t, err)

	rec, err = svc.SetInvestigation(ctx, rec.ID, record.Investigation{
		Summary:  "traced to the connection pool",
		Findings: []string{"pool exhausted under load"},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Investigation)
	assert.Equal(t, record.StatusDetected, rec.Status)

	rec, err = svc.SetResolution(ctx, rec.ID, record.Resolution{
		Summary:        "raised the pool limit",
		ResolutionTime: 2 * time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, record.StatusResolved, rec.Status)
	require.NotNil(t, rec.ResolvedAt)

	rec, err = svc.SetPrevention(ctx, rec.ID, record.Prevention{
		Summary: "alert on pool saturation",
		Actions: []string{"add saturation alarm"},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Prevention)
}

func TestUpdate_MergesFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Detect(ctx, classify.Failure{Message: "boom"}, classify.Detection{})
	require.NoError(t, err)

	sev := record.SeverityCritical
	updated, err := svc.Update(ctx, rec.ID, store.Fields{Severity: &sev})
	require.NoError(t, err)
	assert.Equal(t, record.SeverityCritical, updated.Severity)
	assert.Equal(t, rec.ErrorMessage, updated.ErrorMessage)
}

func TestSearch_FiltersByCriteria(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Detect(ctx, classify.Failure{Message: "Connection refused: timeout"}, classify.Detection{Component: "gateway"})
	require.NoError(t, err)
	_, err = svc.Detect(ctx, classify.Failure{Message: "out of memory"}, classify.Detection{Component: "worker"})
	require.NoError(t, err)

	results, err := svc.Search(ctx, query.Criteria{Component: "gateway"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gateway", results[0].Component)

	all, err := svc.Search(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchByDateAndRange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Detect(ctx, classify.Failure{Message: "boom"}, classify.Detection{})
	require.NoError(t, err)

	today, err := svc.SearchByDate(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, today, 1)

	yesterday, err := svc.SearchByDate(ctx, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, yesterday)

	window, err := svc.SearchByTimeRange(ctx, "1d")
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestSearchSimilar(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ref, err := svc.Detect(ctx, classify.Failure{Message: "Connection refused: timeout"}, classify.Detection{Component: "gateway"})
	require.NoError(t, err)
	twin, err := svc.Detect(ctx, classify.Failure{Message: "Connection refused: timeout"}, classify.Detection{Component: "gateway"})
	require.NoError(t, err)
	_, err = svc.Detect(ctx, classify.Failure{Message: "out of memory"}, classify.Detection{Component: "worker"})
	require.NoError(t, err)

	matches, err := svc.SearchSimilar(ctx, ref.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, twin.ID, matches[0].Record.ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	_, err = svc.SearchSimilar(ctx, "ERR-2026-999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStats_AggregatesFilteredSet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Detect(ctx, classify.Failure{Message: "Connection refused: timeout"}, classify.Detection{Component: "gateway"})
	require.NoError(t, err)
	_, err = svc.Detect(ctx, classify.Failure{Message: "fatal crash"}, classify.Detection{Component: "worker"})
	require.NoError(t, err)
	_, err = svc.SetResolution(ctx, rec.ID, record.Resolution{Summary: "fixed", ResolutionTime: time.Hour})
	require.NoError(t, err)

	s, err := svc.Stats(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.InDelta(t, 50.0, s.ResolutionRate, 1e-9)
	assert.Equal(t, 1, s.ByStatus[record.StatusResolved])

	gateway, err := svc.Stats(ctx, query.Criteria{Component: "gateway"})
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.Total)
}

func TestExport_FormatsAndErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Detect(ctx, classify.Failure{Message: "boom"}, classify.Detection{})
	require.NoError(t, err)

	out, err := svc.Export(ctx, "csv", query.Criteria{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "errorId,timestamp,"))
	assert.Len(t, strings.Split(out, "\n"), 2)

	out, err = svc.Export(ctx, "json", query.Criteria{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "["))

	_, err = svc.Export(ctx, "xml", query.Criteria{})
	assert.Error(t, err)
}

func TestCleanup_ReportsRemovedCount(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "errors.json"), nil)
	require.NoError(t, err)
	_, err = st.Add(&record.Record{
		ErrorMessage: "old",
		Timestamp:    time.Now().AddDate(0, 0, -40),
	})
	require.NoError(t, err)

	svc, err := NewService(nil, st, nil)
	require.NoError(t, err)
	defer svc.Close()

	removed, err := svc.Cleanup(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	results, err := svc.Search(context.Background(), query.Criteria{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClosedServiceRejectsOperations(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Close())

	ctx := context.Background()
	_, err := svc.Detect(ctx, classify.Failure{Message: "boom"}, classify.Detection{})
	assert.Error(t, err)
	_, err = svc.Get(ctx, "ERR-2026-001")
	assert.Error(t, err)
	_, err = svc.Search(ctx, query.Criteria{})
	assert.Error(t, err)
	_, err = svc.Cleanup(ctx, 30)
	assert.Error(t, err)

	// Close is idempotent.
	assert.NoError(t, svc.Close())
}
