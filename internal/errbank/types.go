package errbank

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/errbank/internal/classify"
	"github.com/fyrsmithlabs/errbank/internal/query"
	"github.com/fyrsmithlabs/errbank/internal/record"
	"github.com/fyrsmithlabs/errbank/internal/similarity"
	"github.com/fyrsmithlabs/errbank/internal/stats"
	"github.com/fyrsmithlabs/errbank/internal/store"
)

// Service provides error record management and analytics.
type Service interface {
	// Detect classifies a raw failure and persists the resulting record.
	Detect(ctx context.Context, f classify.Failure, d classify.Detection) (*record.Record, error)

	// Get retrieves a record by ID. Returns store.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*record.Record, error)

	// Update merges fields into an existing record and persists.
	Update(ctx context.Context, id string, fields store.Fields) (*record.Record, error)

	// SetInvestigation attaches investigation findings.
	SetInvestigation(ctx context.Context, id string, inv record.Investigation) (*record.Record, error)

	// SetResolution attaches a resolution and marks the record resolved.
	SetResolution(ctx context.Context, id string, res record.Resolution) (*record.Record, error)

	// SetPrevention attaches prevention actions.
	SetPrevention(ctx context.Context, id string, prev record.Prevention) (*record.Record, error)

	// Search returns records matching the criteria, most recent first.
	Search(ctx context.Context, c query.Criteria) ([]*record.Record, error)

	// SearchByDate returns records from the given calendar day.
	SearchByDate(ctx context.Context, date time.Time) ([]*record.Record, error)

	// SearchByTimeRange returns records from a 1d/7d/30d window ending now.
	// Unrecognized tokens default to 30d.
	SearchByTimeRange(ctx context.Context, token string) ([]*record.Record, error)

	// SearchSimilar ranks the store's records against the given record by
	// heuristic similarity, best match first.
	SearchSimilar(ctx context.Context, id string) ([]similarity.Match, error)

	// Stats aggregates statistics over the records matching the criteria.
	Stats(ctx context.Context, c query.Criteria) (*stats.Stats, error)

	// Export renders the records matching the criteria as json or csv.
	Export(ctx context.Context, format string, c query.Criteria) (string, error)

	// Cleanup purges records older than maxAgeDays and returns the count.
	Cleanup(ctx context.Context, maxAgeDays int) (int, error)

	// Close closes the service.
	Close() error
}

// Config configures the service.
type Config struct {
	// Similarity holds the scoring weights and match threshold.
	Similarity similarity.Config

	// PatternLimit caps the recurring-pattern list in stats.
	PatternLimit int

	// ClassifierOptions customize the classification rule chains.
	ClassifierOptions []classify.Option
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() *Config {
	return &Config{
		Similarity:   similarity.DefaultConfig(),
		PatternLimit: stats.DefaultPatternLimit,
	}
}
