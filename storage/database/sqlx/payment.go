package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/camposdev/unipagos/core/payment"
)

type paymentRow struct {
	ID         string      `db:"id"`
	OwnerID    string      `db:"owner_id"`
	Concept    string      `db:"concept"`
	Category   string      `db:"category"`
	Amount     float64     `db:"amount"`
	AssignedAt null.Time   `db:"assigned_at"`
	DueDate    null.Time   `db:"due_date"`
	Status     string      `db:"status"`
	PaidAt     null.Time   `db:"paid_at"`
	Folio      null.String `db:"folio"`
	Method     null.String `db:"method"`
}

func (row paymentRow) toRecord() payment.PaymentRecord {
	return payment.PaymentRecord{
		ID:         row.ID,
		OwnerID:    row.OwnerID,
		Concept:    row.Concept,
		Category:   row.Category,
		Amount:     row.Amount,
		AssignedAt: row.AssignedAt.Time,
		DueDate:    row.DueDate.Time,
		Status:     payment.Status(row.Status),
		PaidAt:     row.PaidAt,
		Folio:      row.Folio,
		Method:     row.Method,
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo paymentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return payment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo paymentRepository) CreatePayment(ctx context.Context, p payment.PaymentRecord) (payment.PaymentRecord, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payment (id, owner_id, concept, category, amount, assigned_at, due_date, status, paid_at, folio, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Concept, p.Category, p.Amount, p.AssignedAt.UTC(), p.DueDate.UTC(),
		p.Status, p.PaidAt, p.Folio, p.Method,
	)
	if err != nil {
		return payment.PaymentRecord{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo paymentRepository) GetPaymentByID(ctx context.Context, id string) (payment.PaymentRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return payment.PaymentRecord{}, payment.ErrNotFound
	}
	var row paymentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM payment WHERE id = $1`, id); err != nil {
		return payment.PaymentRecord{}, repo.trapNoRowsErr(err, "finding payment by ID")
	}
	return row.toRecord(), nil
}

func (repo paymentRepository) FilterPayments(ctx context.Context, filter payment.QueryFilter) ([]payment.PaymentRecord, error) {
	var conds []string
	var args []interface{}

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT * FROM payment`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY assigned_at ASC"

	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	records := make([]payment.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (repo paymentRepository) UpdatePayment(ctx context.Context, p payment.PaymentRecord) (payment.PaymentRecord, error) {
	// only save set fields
	var sets []string
	var args []interface{}

	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Status != "" {
		set("status", p.Status)
	}
	if p.PaidAt.Valid {
		set("paid_at", p.PaidAt)
	}
	if p.Folio.Valid {
		set("folio", p.Folio)
	}
	if p.Method.Valid {
		set("method", p.Method)
	}
	if len(sets) == 0 {
		return repo.GetPaymentByID(ctx, p.ID)
	}

	args = append(args, p.ID)
	query := fmt.Sprintf(`UPDATE payment SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return payment.PaymentRecord{}, errors.Wrap(err, "updating payment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payment.PaymentRecord{}, payment.ErrNotFound
	}
	return repo.GetPaymentByID(ctx, p.ID)
}

func (repo paymentRepository) ListDismissals(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `SELECT payment_id FROM payment_dismissal WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying dismissals")
	}
	return ids, nil
}

func (repo paymentRepository) AddDismissal(ctx context.Context, ownerID, paymentID string) error {
	query := `
		INSERT INTO payment_dismissal (owner_id, payment_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, payment_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, ownerID, paymentID); err != nil {
		return errors.Wrap(err, "inserting dismissal")
	}
	return nil
}
