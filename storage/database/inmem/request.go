package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/camposdev/unipagos/core/request"
)

type requestRepository struct {
	db *requestTable
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *DB) request.Repository {
	return &requestRepository{db: db.request}
}

func (repo *requestRepository) query() []request.ConstanciaRequest {
	records := make([]request.ConstanciaRequest, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		records = append(records, *r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records
}

func (repo *requestRepository) CreateRequest(_ context.Context, r request.ConstanciaRequest) (request.ConstanciaRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *requestRepository) GetRequestByID(_ context.Context, id string) (request.ConstanciaRequest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return request.ConstanciaRequest{}, request.ErrNotFound
}

func (repo *requestRepository) FilterRequests(_ context.Context, filter request.QueryFilter) ([]request.ConstanciaRequest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := repo.query()
	if filter.OwnerID != "" {
		var filtered []request.ConstanciaRequest
		for _, r := range records {
			if r.OwnerID == filter.OwnerID {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if records != nil && filter.Status != "" {
		var filtered []request.ConstanciaRequest
		for _, r := range records {
			if r.Status == filter.Status {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return records, nil
}

func (repo *requestRepository) UpdateRequest(_ context.Context, r request.ConstanciaRequest) (request.ConstanciaRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[r.ID]
	if !ok {
		return request.ConstanciaRequest{}, request.ErrNotFound
	}
	if r.Status != "" {
		orig.Status = r.Status
	}
	if r.AdminComment.Valid {
		orig.AdminComment = r.AdminComment
	}
	if !r.UpdatedAt.IsZero() {
		orig.UpdatedAt = r.UpdatedAt
	}

	repo.db.table[r.ID] = orig
	return *orig, nil
}
