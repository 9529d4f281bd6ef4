package request

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/user"
)

var (
	ErrNotFound          = errors.New("request not found")
	ErrInvalidTransition = errors.New("invalid request state transition")
	ErrReasonRequired    = errors.New("a rejection reason is required")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateRequest(ctx context.Context, r ConstanciaRequest) (ConstanciaRequest, error)
		GetRequestByID(ctx context.Context, id string) (ConstanciaRequest, error)
		FilterRequests(ctx context.Context, filter QueryFilter) ([]ConstanciaRequest, error)
		UpdateRequest(ctx context.Context, r ConstanciaRequest) (ConstanciaRequest, error)
	}

	Service struct {
		repo   Repository
		broker *broker
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, broker: newBroker()}
}

// Submit creates a pending request on behalf of the submitting student.
func (svc *Service) Submit(ctx context.Context, requester user.User, nr NewRequest) (ConstanciaRequest, error) {
	info, ok := typeInfo(nr.Type)
	if !ok {
		return ConstanciaRequest{}, core.NewValidationError(errors.New("unknown constancia type"),
			core.FieldError{Field: "type", Error: "unknown constancia type"})
	}
	justification := nr.Justification
	if justification == "" {
		justification = DefaultJustification
	}

	now := NowFunc().UTC()
	rec, err := svc.repo.CreateRequest(ctx, ConstanciaRequest{
		ID:             uuid.New().String(),
		OwnerID:        requester.ID,
		RequesterName:  requester.Name,
		RequesterEmail: requester.Email,
		Type:           info.Value,
		Justification:  justification,
		Amount:         info.Amount,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return ConstanciaRequest{}, err
	}
	svc.publish(ctx)
	return rec, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (ConstanciaRequest, error) {
	return svc.repo.GetRequestByID(ctx, id)
}

func (svc *Service) QueryOwned(ctx context.Context, ownerID string) ([]ConstanciaRequest, error) {
	return svc.repo.FilterRequests(ctx, QueryFilter{OwnerID: ownerID})
}

func (svc *Service) QueryAll(ctx context.Context) ([]ConstanciaRequest, error) {
	return svc.repo.FilterRequests(ctx, QueryFilter{})
}

// Approve moves a pending request into processing.
func (svc *Service) Approve(ctx context.Context, id string, res Resolution) (ConstanciaRequest, error) {
	return svc.transition(ctx, id, StatusInProcess, res, StatusPending)
}

// Complete finishes a request that is being processed.
func (svc *Service) Complete(ctx context.Context, id string, res Resolution) (ConstanciaRequest, error) {
	return svc.transition(ctx, id, StatusCompleted, res, StatusInProcess)
}

// Reject refuses a request; the reason is mandatory and stored as the admin comment.
func (svc *Service) Reject(ctx context.Context, id string, res Resolution) (ConstanciaRequest, error) {
	if res.Comment == "" {
		return ConstanciaRequest{}, core.NewValidationError(ErrReasonRequired,
			core.FieldError{Field: "comment", Error: ErrReasonRequired.Error()})
	}
	return svc.transition(ctx, id, StatusRejected, res, StatusPending, StatusInProcess)
}

func (svc *Service) transition(ctx context.Context, id string, to Status, res Resolution, from ...Status) (ConstanciaRequest, error) {
	rec, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return ConstanciaRequest{}, err
	}

	var allowed bool
	for _, s := range from {
		if rec.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return ConstanciaRequest{}, core.NewValidationError(
			errors.Wrap(ErrInvalidTransition, fmt.Sprintf("%s -> %s", rec.Status, to)))
	}

	rec.Status = to
	if res.Comment != "" {
		rec.AdminComment.SetValid(res.Comment)
	}
	rec.UpdatedAt = NowFunc().UTC()

	rec, err = svc.repo.UpdateRequest(ctx, rec)
	if err != nil {
		return ConstanciaRequest{}, err
	}
	svc.publish(ctx)
	return rec, nil
}

// Subscribe returns a cancellable handle delivering a full-list snapshot on
// every store change; the consumer replaces its working set wholesale.
// The current list is delivered immediately.
func (svc *Service) Subscribe(ctx context.Context) (*Subscription, error) {
	snapshot, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	return svc.broker.subscribe(snapshot), nil
}

func (svc *Service) publish(ctx context.Context) {
	snapshot, err := svc.QueryAll(ctx)
	if err != nil {
		return // subscribers keep their last known snapshot
	}
	svc.broker.publish(snapshot)
}
