package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/query"
	"github.com/weiawesome/labor-market/pkg/log"
)

// Text relevance weights of the matched columns.
const (
	weightTitle    = 10
	weightKeywords = 5
	weightDesc     = 1
)

// editableColumns are written by Update. Counters are left to their own
// increment paths so an edit never rolls them back.
var editableColumns = []string{
	"title", "description", "category",
	"requirements", "responsibilities", "skills", "benefits", "tags", "experience",
	"street", "city", "state", "zip_code", "country", "latitude", "longitude", "is_remote",
	"budget_amount", "budget_currency", "budget_type",
	"duration", "start_date", "end_date", "application_deadline", "max_applications",
	"status", "visibility", "featured", "urgent",
	"search_keywords", "keywords_text", "updated_at",
}

// GormJobRepository implements JobRepository using GORM. Free-text search is
// a weighted LIKE match over title, search keywords and description.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GORM-based job repository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// filterScope applies the search predicate. It is shared by Count and Find.
func filterScope(f domain.JobFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", string(domain.JobStatusActive))
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.Location != "" {
			db = db.Where("LOWER(city) LIKE ? ESCAPE '!'", likePattern(f.Location))
		}
		if f.BudgetMin != nil {
			db = db.Where("budget_amount >= ?", *f.BudgetMin)
		}
		if f.BudgetMax != nil {
			db = db.Where("budget_amount <= ?", *f.BudgetMax)
		}
		if f.Duration != "" {
			db = db.Where("duration = ?", f.Duration)
		}
		if terms := query.Terms(f.Query); len(terms) > 0 {
			conds := make([]string, 0, len(terms))
			args := make([]interface{}, 0, 3*len(terms))
			for _, t := range terms {
				p := likePattern(t)
				conds = append(conds, "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(keywords_text) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'")
				args = append(args, p, p, p)
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		} else if f.HasQuery() {
			// Only punctuation: nothing can match.
			db = db.Where("1 = 0")
		}
		return db
	}
}

// scoreSelect selects every column plus the weighted term score.
func scoreSelect(terms []string) (string, []interface{}) {
	parts := make([]string, 0, 3*len(terms))
	args := make([]interface{}, 0, 3*len(terms))
	for _, t := range terms {
		p := likePattern(t)
		parts = append(parts,
			fmt.Sprintf("CASE WHEN LOWER(title) LIKE ? ESCAPE '!' THEN %d ELSE 0 END", weightTitle),
			fmt.Sprintf("CASE WHEN LOWER(keywords_text) LIKE ? ESCAPE '!' THEN %d ELSE 0 END", weightKeywords),
			fmt.Sprintf("CASE WHEN LOWER(description) LIKE ? ESCAPE '!' THEN %d ELSE 0 END", weightDesc),
		)
		args = append(args, p, p, p)
	}
	return "jobs.*, (" + strings.Join(parts, " + ") + ") AS score", args
}

func likePattern(s string) string {
	return "%" + query.EscapeLike(strings.ToLower(s)) + "%"
}

func sortColumn(f domain.SortField) string {
	switch f {
	case domain.SortFieldScore:
		return "score"
	case domain.SortFieldFeatured:
		return "featured"
	case domain.SortFieldUrgent:
		return "urgent"
	case domain.SortFieldCreatedAt:
		return "created_at"
	case domain.SortFieldBudget:
		return "budget_amount"
	default:
		return "id"
	}
}

// Count counts active postings matching the filter.
func (r *GormJobRepository) Count(ctx context.Context, filter domain.JobFilter) (int64, error) {
	l := log.Ctx(ctx)

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.JobModel{}).Scopes(filterScope(filter)).Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count jobs")
		return 0, err
	}
	return total, nil
}

// Find returns one page of active postings matching the filter, in sort order.
func (r *GormJobRepository) Find(ctx context.Context, q domain.JobQuery) ([]domain.Job, error) {
	l := log.Ctx(ctx)

	db := r.db.WithContext(ctx).Model(&domain.JobModel{}).Scopes(filterScope(q.Filter))

	terms := query.Terms(q.Filter.Query)
	if len(terms) > 0 {
		sel, args := scoreSelect(terms)
		db = db.Select(sel, args...)
	}
	for _, k := range q.Sort {
		if k.Field == domain.SortFieldScore && len(terms) == 0 {
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumn(k.Field)}, Desc: k.Desc})
	}

	var models []domain.JobModel
	if err := db.Offset(q.Page.Offset()).Limit(q.Page.Limit).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to find jobs")
		return nil, err
	}
	return toJobs(models), nil
}

// IncrementViews adds one view to each posting. Missing ids are ignored.
func (r *GormJobRepository) IncrementViews(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.JobModel{}).
		Where("id IN ?", ids).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
}

// Create inserts a posting. ID and timestamps must already be set.
func (r *GormJobRepository) Create(ctx context.Context, job *domain.Job) error {
	l := log.Ctx(ctx)

	model := domain.JobToModel(job)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create job in db")
		return err
	}
	job.CreatedAt = model.CreatedAt
	job.UpdatedAt = model.UpdatedAt
	l.Debug().Str(log.FieldJobID, job.ID).Msg("job created in db")
	return nil
}

// GetByID retrieves a posting in any status.
func (r *GormJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	l := log.Ctx(ctx)

	var model domain.JobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		l.Error().Err(err).Str(log.FieldJobID, id).Msg("failed to get job by id")
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update writes the editable columns of a posting.
func (r *GormJobRepository) Update(ctx context.Context, job *domain.Job) error {
	l := log.Ctx(ctx)

	model := domain.JobToModel(job)
	result := r.db.WithContext(ctx).Model(&domain.JobModel{ID: job.ID}).
		Select(editableColumns).
		Updates(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldJobID, job.ID).Msg("failed to update job in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete removes a posting.
func (r *GormJobRepository) Delete(ctx context.Context, id string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Delete(&domain.JobModel{}, "id = ?", id)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldJobID, id).Msg("failed to delete job in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	l.Debug().Str(log.FieldJobID, id).Msg("job deleted in db")
	return nil
}

// ListByEmployer returns an employer's non-draft postings, newest first.
func (r *GormJobRepository) ListByEmployer(ctx context.Context, employerID string, page domain.Page) ([]domain.Job, int64, error) {
	l := log.Ctx(ctx).With().Str(log.FieldEmployerID, employerID).Logger()

	statuses := make([]string, len(domain.NonDraftStatuses))
	for i, s := range domain.NonDraftStatuses {
		statuses[i] = string(s)
	}

	base := r.db.WithContext(ctx).Model(&domain.JobModel{}).
		Where("employer_id = ? AND status IN ?", employerID, statuses)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count employer jobs")
		return nil, 0, err
	}

	var models []domain.JobModel
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list employer jobs")
		return nil, 0, err
	}
	return toJobs(models), total, nil
}

// ExpireStale marks active postings whose deadline has passed, or which
// have no deadline and are older than maxAge, as expired.
func (r *GormJobRepository) ExpireStale(ctx context.Context, now time.Time, maxAge time.Duration) ([]string, error) {
	l := log.Ctx(ctx)

	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.JobModel{}).
			Where("status = ?", string(domain.JobStatusActive)).
			Where(tx.Where("application_deadline IS NOT NULL AND application_deadline < ?", now).
				Or("application_deadline IS NULL AND created_at < ?", now.Add(-maxAge))).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&domain.JobModel{}).
			Where("id IN ? AND status = ?", ids, string(domain.JobStatusActive)).
			Updates(map[string]interface{}{
				"status":     string(domain.JobStatusExpired),
				"updated_at": now,
			}).Error
	})
	if err != nil {
		l.Error().Err(err).Msg("failed to expire stale jobs")
		return nil, err
	}
	return ids, nil
}

// EachBatch walks every posting in primary key order.
func (r *GormJobRepository) EachBatch(ctx context.Context, batchSize int, fn func(jobs []domain.Job) error) error {
	var models []domain.JobModel
	return r.db.WithContext(ctx).Model(&domain.JobModel{}).
		FindInBatches(&models, batchSize, func(tx *gorm.DB, batch int) error {
			return fn(toJobs(models))
		}).Error
}

func toJobs(models []domain.JobModel) []domain.Job {
	jobs := make([]domain.Job, len(models))
	for i := range models {
		jobs[i] = *models[i].ToDomain()
	}
	return jobs
}
