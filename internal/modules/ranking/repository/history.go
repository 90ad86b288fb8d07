package repository

import (
	"context"
	"errors"

	"anoa.com/communitywealth/internal/entity"
	"anoa.com/communitywealth/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryRepository interface {
	Create(ctx context.Context, run *entity.RankingRun) error
	List(ctx context.Context, limit int) ([]entity.RankingRun, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RankingRun, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, run *entity.RankingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *historyRepository) List(ctx context.Context, limit int) ([]entity.RankingRun, error) {
	var runs []entity.RankingRun
	err := r.db.WithContext(ctx).
		Order("finished_at desc").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (r *historyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RankingRun, error) {
	var run entity.RankingRun
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
