package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/pkg/log"
)

// GormEmployerRepository reads employer summaries from the shared users table.
type GormEmployerRepository struct {
	db *gorm.DB
}

// NewGormEmployerRepository creates a new GORM-based employer repository.
func NewGormEmployerRepository(db *gorm.DB) *GormEmployerRepository {
	return &GormEmployerRepository{db: db}
}

// BatchGet fetches the summaries of the given employers in one query.
func (r *GormEmployerRepository) BatchGet(ctx context.Context, ids []string) (map[string]*domain.EmployerSummary, error) {
	out := make(map[string]*domain.EmployerSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []domain.EmployerModel
	if err := r.db.WithContext(ctx).
		Select("id", "first_name", "last_name", "company_name", "average_rating", "total_reviews", "is_verified_employer").
		Where("id IN ?", ids).
		Find(&models).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int("count", len(ids)).Msg("failed to batch get employers")
		return nil, err
	}

	for i := range models {
		out[models[i].ID] = models[i].ToSummary()
	}
	return out, nil
}
