package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"banreport/internal/domain"
)

const recordInsertBatchSize = 100

type RunRepository interface {
	Create(ctx context.Context, stats domain.RunStats, records []domain.Record, reportPath string) error
	GetByID(ctx context.Context, id string) (*domain.RunStats, []domain.Record, error)
	List(ctx context.Context, limit int) ([]domain.RunStats, error)
}

type GormRunRepo struct {
	db *gorm.DB
}

func NewGormRunRepo(db *gorm.DB) *GormRunRepo {
	return &GormRunRepo{db: db}
}

func (r *GormRunRepo) Create(ctx context.Context, stats domain.RunStats, records []domain.Record, reportPath string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(runModelFromStats(stats, reportPath)).Error; err != nil {
			return err
		}

		models := recordModelsFromDomain(stats.RunID, records)
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(&models, recordInsertBatchSize).Error
	})
}

func (r *GormRunRepo) GetByID(ctx context.Context, id string) (*domain.RunStats, []domain.Record, error) {
	var model RunModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var recordModels []RunRecordModel
	err = r.db.WithContext(ctx).
		Where("run_id = ?", id).
		Order("position asc").
		Find(&recordModels).Error
	if err != nil {
		return nil, nil, err
	}

	return runModelToStats(&model), recordModelsToDomain(recordModels), nil
}

func (r *GormRunRepo) List(ctx context.Context, limit int) ([]domain.RunStats, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []RunModel
	err := r.db.WithContext(ctx).
		Order("started_at desc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	stats := make([]domain.RunStats, 0, len(models))
	for i := range models {
		stats = append(stats, *runModelToStats(&models[i]))
	}
	return stats, nil
}
