package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/camposdev/unipagos/core/language"
)

type (
	examRow struct {
		ID      string    `db:"id"`
		OwnerID string    `db:"owner_id"`
		Level   string    `db:"level"`
		Price   float64   `db:"price"`
		Date    null.Time `db:"date"`
		Status  string    `db:"status"`
	}

	bookRow struct {
		ID      string    `db:"id"`
		OwnerID string    `db:"owner_id"`
		Level   string    `db:"level"`
		Title   string    `db:"title"`
		Price   float64   `db:"price"`
		Date    null.Time `db:"date"`
		Status  string    `db:"status"`
	}
)

func (row examRow) toRegistration() language.ExamRegistration {
	return language.ExamRegistration{
		ID:      row.ID,
		OwnerID: row.OwnerID,
		Level:   row.Level,
		Price:   row.Price,
		Date:    row.Date.Time,
		Status:  language.Status(row.Status),
	}
}

func (row bookRow) toPurchase() language.BookPurchase {
	return language.BookPurchase{
		ID:      row.ID,
		OwnerID: row.OwnerID,
		Level:   row.Level,
		Title:   row.Title,
		Price:   row.Price,
		Date:    row.Date.Time,
		Status:  language.Status(row.Status),
	}
}

type languageRepository struct {
	db *sqlx.DB
}

var _ language.Repository = (*languageRepository)(nil) // interface compliance check

func NewLanguageRepository(db *sqlx.DB) *languageRepository {
	return &languageRepository{db: db}
}

func (repo languageRepository) CreateExamRegistration(ctx context.Context, reg language.ExamRegistration) (language.ExamRegistration, error) {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	query := `
		INSERT INTO exam_registration (id, owner_id, level, price, date, status)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query, reg.ID, reg.OwnerID, reg.Level, reg.Price, reg.Date.UTC(), reg.Status)
	if err != nil {
		return language.ExamRegistration{}, errors.Wrap(err, "inserting exam registration")
	}
	return reg, nil
}

func (repo languageRepository) QueryExamRegistrations(ctx context.Context, ownerID string) ([]language.ExamRegistration, error) {
	query := `SELECT * FROM exam_registration ORDER BY date ASC`
	args := []interface{}{}
	if ownerID != "" {
		query = `SELECT * FROM exam_registration WHERE owner_id = $1 ORDER BY date ASC`
		args = append(args, ownerID)
	}

	var rows []examRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying exam registrations")
	}
	regs := make([]language.ExamRegistration, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, row.toRegistration())
	}
	return regs, nil
}

func (repo languageRepository) CreateBookPurchase(ctx context.Context, bp language.BookPurchase) (language.BookPurchase, error) {
	if bp.ID == "" {
		bp.ID = uuid.New().String()
	}
	query := `
		INSERT INTO book_purchase (id, owner_id, level, title, price, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query, bp.ID, bp.OwnerID, bp.Level, bp.Title, bp.Price, bp.Date.UTC(), bp.Status)
	if err != nil {
		return language.BookPurchase{}, errors.Wrap(err, "inserting book purchase")
	}
	return bp, nil
}

func (repo languageRepository) QueryBookPurchases(ctx context.Context, ownerID string) ([]language.BookPurchase, error) {
	query := `SELECT * FROM book_purchase ORDER BY date ASC`
	args := []interface{}{}
	if ownerID != "" {
		query = `SELECT * FROM book_purchase WHERE owner_id = $1 ORDER BY date ASC`
		args = append(args, ownerID)
	}

	var rows []bookRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying book purchases")
	}
	purchases := make([]language.BookPurchase, 0, len(rows))
	for _, row := range rows {
		purchases = append(purchases, row.toPurchase())
	}
	return purchases, nil
}
