package cache

import (
	"context"
	"time"

	"github.com/weiawesome/labor-market/internal/domain"
)

// SearchResult is one cached page of the search pipeline.
type SearchResult struct {
	Jobs  []domain.JobResponse `json:"jobs"`
	Total int64                `json:"total"`
}

// SearchCache defines the interface for caching search pages.
type SearchCache interface {
	Get(ctx context.Context, key string) (*SearchResult, error)
	Set(ctx context.Context, key string, result *SearchResult, ttl time.Duration) error
	BuildKey(kind string, q domain.JobQuery) string
}

// EmployerCache caches employer summaries by id.
type EmployerCache interface {
	// GetMany returns the cached summaries; ids not in the cache are absent.
	GetMany(ctx context.Context, ids []string) (map[string]*domain.EmployerSummary, error)
	SetMany(ctx context.Context, summaries map[string]*domain.EmployerSummary, ttl time.Duration) error
}
