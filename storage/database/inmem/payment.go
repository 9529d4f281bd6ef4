package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/camposdev/unipagos/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) query() []payment.PaymentRecord {
	records := make([]payment.PaymentRecord, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		records = append(records, *p)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].AssignedAt.Before(records[j].AssignedAt) })
	return records
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p payment.PaymentRecord) (payment.PaymentRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *paymentRepository) GetPaymentByID(_ context.Context, id string) (payment.PaymentRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return payment.PaymentRecord{}, payment.ErrNotFound
}

func (repo *paymentRepository) FilterPayments(_ context.Context, filter payment.QueryFilter) ([]payment.PaymentRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := repo.query()
	if filter.OwnerID != "" {
		var filtered []payment.PaymentRecord
		for _, p := range records {
			if p.OwnerID == filter.OwnerID {
				filtered = append(filtered, p)
			}
		}
		records = filtered
	}
	if records != nil && filter.Status != "" {
		var filtered []payment.PaymentRecord
		for _, p := range records {
			if p.Status == filter.Status {
				filtered = append(filtered, p)
			}
		}
		records = filtered
	}
	return records, nil
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, p payment.PaymentRecord) (payment.PaymentRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return payment.PaymentRecord{}, payment.ErrNotFound
	}
	if p.Status != "" {
		orig.Status = p.Status
	}
	if p.PaidAt.Valid {
		orig.PaidAt = p.PaidAt
	}
	if p.Folio.Valid {
		orig.Folio = p.Folio
	}
	if p.Method.Valid {
		orig.Method = p.Method
	}

	repo.db.table[p.ID] = orig
	return *orig, nil
}

func (repo *paymentRepository) ListDismissals(_ context.Context, ownerID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	set := repo.db.dismissals[ownerID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

func (repo *paymentRepository) AddDismissal(_ context.Context, ownerID, paymentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.dismissals[ownerID] == nil {
		repo.db.dismissals[ownerID] = make(map[string]bool)
	}
	repo.db.dismissals[ownerID][paymentID] = true
	return nil
}
