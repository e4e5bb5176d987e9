package service

import (
	"context"

	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/utils"
)

type DatasetService interface {
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	ListDatasets(ctx context.Context, req *ListDatasetsRequest) (*ListDatasetsResponse, error)
	GetDatasetRows(ctx context.Context, id string, limit, offset int) (*DatasetRowsResponse, error)
}

type ListDatasetsRequest struct {
	SourceID string `json:"source_id,omitempty"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
	Offset   int    `json:"offset,omitempty" validate:"omitempty,min=0"`
}

type ListDatasetsResponse struct {
	Datasets []*model.Dataset `json:"datasets"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// DatasetRowsResponse is one page of materialized rows. Each row is the stored
// field set with the synthetic row id spliced back in.
type DatasetRowsResponse struct {
	DatasetID string                   `json:"dataset_id"`
	Rows      []map[string]interface{} `json:"rows"`
	Total     int64                    `json:"total"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

type datasetService struct {
	repo repository.DatasetRepository
}

// NewDatasetService creates a new instance of DatasetService
func NewDatasetService(repo repository.DatasetRepository) DatasetService {
	return &datasetService{repo: repo}
}

func (s *datasetService) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	if !utils.IsValidUUID(id) {
		return nil, repository.ErrInvalidUUID
	}
	return s.repo.GetDataset(ctx, id)
}

func (s *datasetService) ListDatasets(ctx context.Context, req *ListDatasetsRequest) (*ListDatasetsResponse, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}

	datasets, total, err := s.repo.ListDatasets(ctx, req.SourceID, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListDatasetsResponse{
		Datasets: datasets,
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}, nil
}

func (s *datasetService) GetDatasetRows(ctx context.Context, id string, limit, offset int) (*DatasetRowsResponse, error) {
	if !utils.IsValidUUID(id) {
		return nil, repository.ErrInvalidUUID
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	// Existence check so an unknown dataset is a not-found, not an empty page
	if _, err := s.repo.GetDataset(ctx, id); err != nil {
		return nil, err
	}

	records, total, err := s.repo.GetRows(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		row := make(map[string]interface{}, len(record.Fields)+1)
		for k, v := range record.Fields {
			row[k] = v
		}
		row["_dataset_row_id"] = record.ID
		rows = append(rows, row)
	}

	return &DatasetRowsResponse{
		DatasetID: id,
		Rows:      rows,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}, nil
}
