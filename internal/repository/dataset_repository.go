package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"dataviz-sync/internal/model"
)

const insertBatchSize = 500

type datasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository creates a new instance of DatasetRepository
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

// CreateDataset stores a new dataset record
func (r *datasetRepository) CreateDataset(ctx context.Context, dataset *model.Dataset) error {
	return r.db.WithContext(ctx).Create(dataset).Error
}

// InsertRows bulk-inserts row records
func (r *datasetRepository) InsertRows(ctx context.Context, rows []*model.RowRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error
}

// DeleteDataset removes one dataset and its row records
func (r *datasetRepository) DeleteDataset(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("dataset_id = ?", id).Delete(&model.RowRecord{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Dataset{}).Error
}

// DeleteBySource removes all datasets (and their rows) produced by a
// connection. Rows are deleted before dataset records so a crash mid-delete
// never leaves orphaned rows behind a missing dataset.
func (r *datasetRepository) DeleteBySource(ctx context.Context, sourceID string) error {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Dataset{}).
		Where("source_id = ?", sourceID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Where("dataset_id IN ?", ids).Delete(&model.RowRecord{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Dataset{}).Error
}

// GetDataset retrieves a dataset by id
func (r *datasetRepository) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	var dataset model.Dataset
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&dataset)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, result.Error
	}
	return &dataset, nil
}

// ListDatasets retrieves datasets, optionally filtered by source connection
func (r *datasetRepository) ListDatasets(ctx context.Context, sourceID string, limit, offset int) ([]*model.Dataset, int64, error) {
	var datasets []*model.Dataset
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Dataset{})
	if sourceID != "" {
		query = query.Where("source_id = ?", sourceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Limit(limit).Offset(offset).Order("created_at DESC").Find(&datasets)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return datasets, total, nil
}

// GetRows retrieves a page of row records for one dataset
func (r *datasetRepository) GetRows(ctx context.Context, datasetID string, limit, offset int) ([]*model.RowRecord, int64, error) {
	var rows []*model.RowRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&model.RowRecord{}).Where("dataset_id = ?", datasetID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Limit(limit).Offset(offset).Find(&rows)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return rows, total, nil
}
