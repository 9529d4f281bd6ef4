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

	"github.com/camposdev/unipagos/core/request"
)

type requestRow struct {
	ID             string      `db:"id"`
	OwnerID        string      `db:"owner_id"`
	RequesterName  string      `db:"requester_name"`
	RequesterEmail string      `db:"requester_email"`
	Type           string      `db:"type"`
	Justification  string      `db:"justification"`
	Amount         float64     `db:"amount"`
	Status         string      `db:"status"`
	AdminComment   null.String `db:"admin_comment"`
	CreatedAt      null.Time   `db:"created_at"`
	UpdatedAt      null.Time   `db:"updated_at"`
}

func (row requestRow) toRequest() request.ConstanciaRequest {
	return request.ConstanciaRequest{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		RequesterName:  row.RequesterName,
		RequesterEmail: row.RequesterEmail,
		Type:           row.Type,
		Justification:  row.Justification,
		Amount:         row.Amount,
		Status:         request.Status(row.Status),
		AdminComment:   row.AdminComment,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

type requestRepository struct {
	db *sqlx.DB
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *sqlx.DB) *requestRepository {
	return &requestRepository{db: db}
}

func (repo requestRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return request.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo requestRepository) CreateRequest(ctx context.Context, r request.ConstanciaRequest) (request.ConstanciaRequest, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	query := `
		INSERT INTO constancia_request
			(id, owner_id, requester_name, requester_email, type, justification, amount, status, admin_comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		r.ID, r.OwnerID, r.RequesterName, r.RequesterEmail, r.Type, r.Justification,
		r.Amount, r.Status, r.AdminComment, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	if err != nil {
		return request.ConstanciaRequest{}, errors.Wrap(err, "inserting constancia request")
	}
	return r, nil
}

func (repo requestRepository) GetRequestByID(ctx context.Context, id string) (request.ConstanciaRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return request.ConstanciaRequest{}, request.ErrNotFound
	}
	var row requestRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM constancia_request WHERE id = $1`, id); err != nil {
		return request.ConstanciaRequest{}, repo.trapNoRowsErr(err, "finding constancia request by ID")
	}
	return row.toRequest(), nil
}

func (repo requestRepository) FilterRequests(ctx context.Context, filter request.QueryFilter) ([]request.ConstanciaRequest, error) {
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

	query := `SELECT * FROM constancia_request`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	var rows []requestRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying constancia requests")
	}
	reqs := make([]request.ConstanciaRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequest())
	}
	return reqs, nil
}

func (repo requestRepository) UpdateRequest(ctx context.Context, r request.ConstanciaRequest) (request.ConstanciaRequest, error) {
	// only save set fields
	var sets []string
	var args []interface{}

	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if r.Status != "" {
		set("status", r.Status)
	}
	if r.AdminComment.Valid {
		set("admin_comment", r.AdminComment)
	}
	if !r.UpdatedAt.IsZero() {
		set("updated_at", r.UpdatedAt.UTC())
	}
	if len(sets) == 0 {
		return repo.GetRequestByID(ctx, r.ID)
	}

	args = append(args, r.ID)
	query := fmt.Sprintf(`UPDATE constancia_request SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return request.ConstanciaRequest{}, errors.Wrap(err, "updating constancia request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return request.ConstanciaRequest{}, request.ErrNotFound
	}
	return repo.GetRequestByID(ctx, r.ID)
}
