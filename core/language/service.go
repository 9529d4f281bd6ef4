package language

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core"
)

var (
	ErrNotFound = errors.New("registration not found")

	NowFunc = time.Now // mockable
)

type (
	// Repository queries take an ownerID; an empty one matches every owner.
	Repository interface {
		CreateExamRegistration(ctx context.Context, reg ExamRegistration) (ExamRegistration, error)
		QueryExamRegistrations(ctx context.Context, ownerID string) ([]ExamRegistration, error)
		CreateBookPurchase(ctx context.Context, bp BookPurchase) (BookPurchase, error)
		QueryBookPurchases(ctx context.Context, ownerID string) ([]BookPurchase, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) LevelCatalog() []LevelInfo {
	return Levels
}

func (svc *Service) RegisterExam(ctx context.Context, ownerID string, ne NewExamRegistration) (ExamRegistration, error) {
	info, ok := levelInfo(ne.Level)
	if !ok {
		return ExamRegistration{}, core.NewValidationError(errors.New("unknown exam level"),
			core.FieldError{Field: "level", Error: "unknown exam level"})
	}
	return svc.repo.CreateExamRegistration(ctx, ExamRegistration{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Level:   info.Value,
		Price:   info.ExamPrice,
		Date:    NowFunc().UTC(),
		Status:  StatusRegistered,
	})
}

func (svc *Service) PurchaseBook(ctx context.Context, ownerID string, nb NewBookPurchase) (BookPurchase, error) {
	info, ok := levelInfo(nb.Level)
	if !ok {
		return BookPurchase{}, core.NewValidationError(errors.New("unknown exam level"),
			core.FieldError{Field: "level", Error: "unknown exam level"})
	}
	return svc.repo.CreateBookPurchase(ctx, BookPurchase{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Level:   info.Value,
		Title:   info.BookTitle,
		Price:   info.BookPrice,
		Date:    NowFunc().UTC(),
		Status:  StatusPurchased,
	})
}

func (svc *Service) QueryExams(ctx context.Context, ownerID string) ([]ExamRegistration, error) {
	return svc.repo.QueryExamRegistrations(ctx, ownerID)
}

func (svc *Service) QueryBooks(ctx context.Context, ownerID string) ([]BookPurchase, error) {
	return svc.repo.QueryBookPurchases(ctx, ownerID)
}

func (svc *Service) QueryAllExams(ctx context.Context) ([]ExamRegistration, error) {
	return svc.repo.QueryExamRegistrations(ctx, "")
}

func (svc *Service) QueryAllBooks(ctx context.Context) ([]BookPurchase, error) {
	return svc.repo.QueryBookPurchases(ctx, "")
}
