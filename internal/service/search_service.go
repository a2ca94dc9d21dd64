package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/labor-market/internal/cache"
	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/query"
	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/internal/views"
	"github.com/weiawesome/labor-market/pkg/log"
)

const (
	kindListing = "listing"
	kindSearch  = "search"

	cacheSetTimeout = 2 * time.Second
)

// SearchOptions tunes the search engine.
type SearchOptions struct {
	Limits       query.Limits
	QueryTimeout time.Duration
	CacheTTL     time.Duration
}

type searchServiceImpl struct {
	store     repository.JobStore
	employers repository.EmployerRepository
	cache     cache.SearchCache
	recorder  views.Recorder
	opts      SearchOptions
	sf        singleflight.Group
}

// NewSearchService creates the search engine. searchCache may be nil.
func NewSearchService(
	store repository.JobStore,
	employers repository.EmployerRepository,
	searchCache cache.SearchCache,
	recorder views.Recorder,
	opts SearchOptions,
) SearchService {
	if recorder == nil {
		recorder = views.NopRecorder{}
	}
	return &searchServiceImpl{
		store:     store,
		employers: employers,
		cache:     searchCache,
		recorder:  recorder,
		opts:      opts,
	}
}

func (s *searchServiceImpl) ListJobs(ctx context.Context, req domain.ListJobsRequest) (*domain.ListJobsResponse, error) {
	q := domain.JobQuery{
		Filter: query.FromListing(req),
		Sort:   query.ListingSort(),
		Page:   s.opts.Limits.Page(req.Page, req.Limit),
	}

	result, err := s.run(ctx, kindListing, q)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Jobs))
	for i := range result.Jobs {
		ids = append(ids, result.Jobs[i].ID)
	}
	s.recorder.Record(ctx, ids...)

	resp := query.Result(result.Jobs, result.Total, q.Page)
	return &resp, nil
}

func (s *searchServiceImpl) SearchJobs(ctx context.Context, req domain.SearchJobsRequest) (*domain.SearchJobsResponse, error) {
	filter := query.FromSearch(req)
	mode := query.ParseSortMode(req.SortBy)
	q := domain.JobQuery{
		Filter: filter,
		Sort:   query.ResolveSort(mode, filter.HasQuery()),
		Page:   s.opts.Limits.Page(req.Page, req.Limit),
	}

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldQuery, filter.Query).
		Str(log.FieldSortBy, string(mode)).
		Msg("search jobs")

	result, err := s.run(ctx, kindSearch, q)
	if err != nil {
		return nil, err
	}

	return &domain.SearchJobsResponse{
		ListJobsResponse: query.Result(result.Jobs, result.Total, q.Page),
		Filters: domain.SearchFilters{
			Category:  req.Category,
			Location:  req.Location,
			BudgetMin: req.BudgetMin,
			BudgetMax: req.BudgetMax,
			Duration:  req.Duration,
			SortBy:    string(mode),
		},
	}, nil
}

// run is the shared pipeline: filter, count, rank and page, then join.
// Identical concurrent queries share one execution.
func (s *searchServiceImpl) run(ctx context.Context, kind string, q domain.JobQuery) (*cache.SearchResult, error) {
	key := flightKey(kind, q)
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.BuildKey(kind, q)
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Callers coalesced onto this flight must not fail when the first one goes away.
		ctx := context.WithoutCancel(ctx)
		if s.cache != nil {
			cached, err := s.cache.Get(ctx, cacheKey)
			if err == nil {
				return cached, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				l := log.Ctx(ctx)
				l.Warn().Err(err).Msg("cache get error")
			}
		}

		qctx := ctx
		if s.opts.QueryTimeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
			defer cancel()
		}

		var (
			total int64
			jobs  []domain.Job
		)
		g, gCtx := errgroup.WithContext(qctx)
		g.Go(func() error {
			var err error
			total, err = s.store.Count(gCtx, q.Filter)
			return err
		})
		g.Go(func() error {
			var err error
			jobs, err = s.store.Find(gCtx, q)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		result := &cache.SearchResult{
			Jobs:  s.join(qctx, jobs),
			Total: total,
		}

		if s.cache != nil {
			s.asyncCacheSet(cacheKey, result)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.SearchResult), nil
}

// join attaches employer summaries. Unknown employers and lookup failures
// leave the summary nil rather than failing the page.
func (s *searchServiceImpl) join(ctx context.Context, jobs []domain.Job) []domain.JobResponse {
	out := make([]domain.JobResponse, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	summaries := lookupEmployers(ctx, s.employers, employerIDs(jobs))
	for i := range jobs {
		out[i] = domain.JobResponse{Job: jobs[i], Employer: summaries[jobs[i].EmployerID]}
	}
	return out
}

func (s *searchServiceImpl) asyncCacheSet(key string, result *cache.SearchResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheSetTimeout)
		defer cancel()

		if err := s.cache.Set(ctx, key, result, s.opts.CacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Str("key", key).Msg("cache set error")
		}
	}()
}

func flightKey(kind string, q domain.JobQuery) string {
	b, err := json.Marshal(q)
	if err != nil {
		return kind
	}
	return kind + ":" + string(b)
}

func employerIDs(jobs []domain.Job) []string {
	seen := make(map[string]struct{}, len(jobs))
	ids := make([]string, 0, len(jobs))
	for i := range jobs {
		id := jobs[i].EmployerID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func lookupEmployers(ctx context.Context, repo repository.EmployerRepository, ids []string) map[string]*domain.EmployerSummary {
	if repo == nil || len(ids) == 0 {
		return map[string]*domain.EmployerSummary{}
	}
	summaries, err := repo.BatchGet(ctx, ids)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int("count", len(ids)).Msg("employer lookup failed")
		return map[string]*domain.EmployerSummary{}
	}
	return summaries
}
