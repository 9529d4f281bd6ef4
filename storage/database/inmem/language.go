package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/camposdev/unipagos/core/language"
)

type languageRepository struct {
	db *langTable
}

var _ language.Repository = (*languageRepository)(nil) // interface compliance check

func NewLanguageRepository(db *DB) language.Repository {
	return &languageRepository{db: db.lang}
}

func (repo *languageRepository) CreateExamRegistration(_ context.Context, reg language.ExamRegistration) (language.ExamRegistration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	repo.db.exams[reg.ID] = &reg
	return reg, nil
}

func (repo *languageRepository) QueryExamRegistrations(_ context.Context, ownerID string) ([]language.ExamRegistration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var regs []language.ExamRegistration
	for _, reg := range repo.db.exams {
		if ownerID == "" || reg.OwnerID == ownerID {
			regs = append(regs, *reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Date.Before(regs[j].Date) })
	return regs, nil
}

func (repo *languageRepository) CreateBookPurchase(_ context.Context, bp language.BookPurchase) (language.BookPurchase, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if bp.ID == "" {
		bp.ID = uuid.New().String()
	}
	repo.db.books[bp.ID] = &bp
	return bp, nil
}

func (repo *languageRepository) QueryBookPurchases(_ context.Context, ownerID string) ([]language.BookPurchase, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var purchases []language.BookPurchase
	for _, bp := range repo.db.books {
		if ownerID == "" || bp.OwnerID == ownerID {
			purchases = append(purchases, *bp)
		}
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].Date.Before(purchases[j].Date) })
	return purchases, nil
}
