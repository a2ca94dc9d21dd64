package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/query"
	"github.com/weiawesome/labor-market/pkg/log"
)

// maxResultWindow is the default index.max_result_window; searches reaching
// past it are rejected by Elasticsearch.
const maxResultWindow = 10000

// textFields are the multi_match fields with their relevance boosts.
var textFields = []string{"title^10", "search_keywords^5", "description"}

// jobsMapping is the index mapping for job documents. Documents are the
// JSON form of domain.Job.
const jobsMapping = `{
  "mappings": {
    "properties": {
      "id":              {"type": "keyword"},
      "employer_id":     {"type": "keyword"},
      "title":           {"type": "text"},
      "description":     {"type": "text"},
      "search_keywords": {"type": "text"},
      "skills":          {"type": "text"},
      "category":        {"type": "keyword"},
      "duration":        {"type": "keyword"},
      "status":          {"type": "keyword"},
      "visibility":      {"type": "keyword"},
      "featured":        {"type": "boolean"},
      "urgent":          {"type": "boolean"},
      "location": {
        "properties": {
          "address": {
            "properties": {
              "city":  {"type": "keyword"},
              "state": {"type": "keyword"}
            }
          }
        }
      },
      "budget": {
        "properties": {
          "amount": {"type": "double"}
        }
      },
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

type esJobRepository struct {
	client *elasticsearch.Client
	index  string
}

// NewESJobRepository creates a new Elasticsearch-based job index.
func NewESJobRepository(client *elasticsearch.Client, index string) JobIndex {
	return &esJobRepository{
		client: client,
		index:  index,
	}
}

// filterClauses translates a filter into bool filter and must clauses.
func filterClauses(f domain.JobFilter) (filter []interface{}, must []interface{}) {
	filter = append(filter, term("status", string(domain.JobStatusActive)))
	if f.Category != "" {
		filter = append(filter, term("category", f.Category))
	}
	if f.Location != "" {
		filter = append(filter, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"location.address.city": map[string]interface{}{
					"value":            "*" + escapeWildcard(f.Location) + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	if f.BudgetMin != nil || f.BudgetMax != nil {
		bounds := map[string]interface{}{}
		if f.BudgetMin != nil {
			bounds["gte"] = *f.BudgetMin
		}
		if f.BudgetMax != nil {
			bounds["lte"] = *f.BudgetMax
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"budget.amount": bounds},
		})
	}
	if f.Duration != "" {
		filter = append(filter, term("duration", f.Duration))
	}
	if f.HasQuery() && len(query.Terms(f.Query)) == 0 {
		// Only punctuation: nothing can match.
		must = append(must, map[string]interface{}{"match_none": map[string]interface{}{}})
	} else if f.HasQuery() {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  f.Query,
				"fields": textFields,
			},
		})
	}
	return filter, must
}

func boolQuery(f domain.JobFilter) map[string]interface{} {
	filter, must := filterClauses(f)
	b := map[string]interface{}{"filter": filter}
	if len(must) > 0 {
		b["must"] = must
	}
	return map[string]interface{}{"bool": b}
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}

func esSortField(f domain.SortField) string {
	switch f {
	case domain.SortFieldScore:
		return "_score"
	case domain.SortFieldFeatured:
		return "featured"
	case domain.SortFieldUrgent:
		return "urgent"
	case domain.SortFieldCreatedAt:
		return "created_at"
	case domain.SortFieldBudget:
		return "budget.amount"
	default:
		return "id"
	}
}

// pageWindow returns from and size for the page, with size cut to the result
// window. ok is false when the page starts at or beyond the window.
func pageWindow(p domain.Page) (from, size int, ok bool) {
	from = p.Offset()
	if from >= maxResultWindow {
		return 0, 0, false
	}
	size = p.Limit
	if from+size > maxResultWindow {
		size = maxResultWindow - from
	}
	return from, size, true
}

func searchBody(q domain.JobQuery) map[string]interface{} {
	sort := make([]interface{}, 0, len(q.Sort))
	for _, k := range q.Sort {
		if k.Field == domain.SortFieldScore && !q.Filter.HasQuery() {
			continue
		}
		order := "asc"
		if k.Desc {
			order = "desc"
		}
		sort = append(sort, map[string]interface{}{esSortField(k.Field): map[string]interface{}{"order": order}})
	}
	from, size, _ := pageWindow(q.Page)
	return map[string]interface{}{
		"from":             from,
		"size":             size,
		"query":            boolQuery(q.Filter),
		"sort":             sort,
		"track_total_hits": false,
	}
}

func countBody(f domain.JobFilter) map[string]interface{} {
	return map[string]interface{}{"query": boolQuery(f)}
}

// Count runs _count with the same query the page search uses.
func (r *esJobRepository) Count(ctx context.Context, filter domain.JobFilter) (int64, error) {
	data, err := json.Marshal(countBody(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Count(
		r.client.Count.WithContext(ctx),
		r.client.Count.WithIndex(r.index),
		r.client.Count.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Count, nil
}

// Find runs the page search. Pages beyond the result window are empty.
func (r *esJobRepository) Find(ctx context.Context, q domain.JobQuery) ([]domain.Job, error) {
	if _, _, ok := pageWindow(q.Page); !ok {
		return []domain.Job{}, nil
	}

	data, err := json.Marshal(searchBody(q))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.jobs(ctx), nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (r *esJobRepository) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = r.client.Indices.Create(r.index,
		r.client.Indices.Create.WithContext(ctx),
		r.client.Indices.Create.WithBody(strings.NewReader(jobsMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// Index writes one job document.
func (r *esJobRepository) Index(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	res, err := r.client.Index(r.index, bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(job.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index job: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// Remove deletes one job document. A missing document is not an error.
func (r *esJobRepository) Remove(ctx context.Context, id string) error {
	res, err := r.client.Delete(r.index, id, r.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// BulkIndex writes many job documents through the bulk API.
func (r *esJobRepository) BulkIndex(ctx context.Context, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     r.client,
		Index:      r.index,
		NumWorkers: 2,
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	l := log.Ctx(ctx)
	var failed atomic.Int64
	for i := range jobs {
		data, err := json.Marshal(&jobs[i])
		if err != nil {
			closeBulk(ctx, bi)
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: jobs[i].ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					l.Warn().Err(err).Str(log.FieldJobID, item.DocumentID).Msg("bulk index item failed")
					return
				}
				l.Warn().Str(log.FieldJobID, item.DocumentID).Str("reason", res.Error.Reason).Msg("bulk index item failed")
			},
		})
		if err != nil {
			closeBulk(ctx, bi)
			return fmt.Errorf("failed to add bulk item: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("failed to flush bulk indexer: %w", err)
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("bulk index: %d of %d documents failed", n, len(jobs))
	}
	return nil
}

// closeBulk stops the indexer workers after an aborted run. Items already
// queued are still flushed.
func closeBulk(ctx context.Context, bi esutil.BulkIndexer) {
	if err := bi.Close(context.WithoutCancel(ctx)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to close bulk indexer")
	}
}

// esResponse is the Elasticsearch search response structure.
type esResponse struct {
	Hits struct {
		Hits []struct {
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *esResponse) jobs(ctx context.Context) []domain.Job {
	jobs := make([]domain.Job, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		var job domain.Job
		if err := json.Unmarshal(hit.Source, &job); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("skipping undecodable job document")
			continue
		}
		job.Score = 0
		if hit.Score != nil {
			job.Score = *hit.Score
		}
		jobs = append(jobs, job)
	}
	return jobs
}
