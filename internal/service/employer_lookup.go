package service

import (
	"context"
	"time"

	"github.com/weiawesome/labor-market/internal/cache"
	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/pkg/log"
)

type cachedEmployerRepository struct {
	repo  repository.EmployerRepository
	cache cache.EmployerCache
	ttl   time.Duration
}

// NewCachedEmployerRepository serves employer summaries from cache first and
// falls back to repo for the misses. Cache errors count as misses.
func NewCachedEmployerRepository(repo repository.EmployerRepository, employerCache cache.EmployerCache, ttl time.Duration) repository.EmployerRepository {
	return &cachedEmployerRepository{
		repo:  repo,
		cache: employerCache,
		ttl:   ttl,
	}
}

func (r *cachedEmployerRepository) BatchGet(ctx context.Context, ids []string) (map[string]*domain.EmployerSummary, error) {
	found, err := r.cache.GetMany(ctx, ids)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("employer cache get error")
	}
	if found == nil {
		found = map[string]*domain.EmployerSummary{}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := r.repo.BatchGet(ctx, missing)
	if err != nil {
		// Cache hits are still good; the rest of the page goes without.
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int("missing", len(missing)).Msg("employer lookup failed")
		return found, nil
	}
	for id, s := range fetched {
		found[id] = s
	}

	if len(fetched) > 0 {
		go func() {
			sctx, cancel := context.WithTimeout(context.Background(), cacheSetTimeout)
			defer cancel()

			if err := r.cache.SetMany(sctx, fetched, r.ttl); err != nil {
				l := log.L()
				l.Warn().Err(err).Int("count", len(fetched)).Msg("employer cache set error")
			}
		}()
	}
	return found, nil
}
