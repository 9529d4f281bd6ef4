package payment

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/user"
)

var (
	ErrNotFound       = errors.New("payment not found")
	ErrAlreadyPaid    = errors.New("payment has already been paid")
	ErrUnknownConcept = errors.New("unknown payment concept")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, p PaymentRecord) (PaymentRecord, error)
		GetPaymentByID(ctx context.Context, id string) (PaymentRecord, error)
		FilterPayments(ctx context.Context, filter QueryFilter) ([]PaymentRecord, error)
		// UpdatePayment overwrites non-zero fields of the stored record.
		UpdatePayment(ctx context.Context, p PaymentRecord) (PaymentRecord, error)
		ListDismissals(ctx context.Context, ownerID string) ([]string, error)
		AddDismissal(ctx context.Context, ownerID, paymentID string) error
	}

	// UserDirectory resolves assignment recipients. Satisfied by *user.Service.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserDirectory
		mail  core.EmailService
		conf  *core.Config
	}
)

func NewService(repo Repository, users UserDirectory, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, users: users, mail: mailSvc, conf: conf}
}

// Concepts lists the fixed assignable concepts with their configured amounts.
func (svc *Service) Concepts() []ConceptInfo {
	return []ConceptInfo{
		{Label: ConceptMensualidad, Category: CategoryColegiatura, Amount: svc.conf.Payment.MonthlyFeeAmount},
		{Label: ConceptInscripcion, Category: CategoryInscripcion, Amount: svc.conf.Payment.EnrollmentFeeAmount},
	}
}

func (svc *Service) conceptInfo(label string) (ConceptInfo, error) {
	for _, c := range svc.Concepts() {
		if strings.EqualFold(c.Label, label) {
			return c, nil
		}
	}
	return ConceptInfo{}, ErrUnknownConcept
}

// Assign fans out one independent write per recipient and aggregates outcomes.
// Writes carry no ordering guarantee and are never rolled back: a failed subset
// leaves the succeeded records in place and is reported as a partial outcome.
func (svc *Service) Assign(ctx context.Context, ap AssignPayments) (BatchResult, error) {
	concept, err := svc.conceptInfo(ap.Concept)
	if err != nil {
		return BatchResult{}, core.NewValidationError(err, core.FieldError{Field: "concept", Error: err.Error()})
	}

	now := NowFunc().UTC()
	due := now.Add(svc.conf.Payment.DueDelta)

	type outcome struct {
		record    PaymentRecord
		recipient user.User
		failure   *BatchFailure
	}

	outcomes := make([]outcome, len(ap.RecipientIDs))
	var wg sync.WaitGroup
	for i, id := range ap.RecipientIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			usr, err := svc.users.GetByID(ctx, id)
			if err != nil {
				outcomes[i] = outcome{failure: &BatchFailure{RecipientID: id, Message: err.Error()}}
				return
			}
			rec, err := svc.repo.CreatePayment(ctx, PaymentRecord{
				ID:         uuid.New().String(),
				OwnerID:    usr.ID,
				Concept:    concept.Label,
				Category:   concept.Category,
				Amount:     concept.Amount,
				AssignedAt: now,
				DueDate:    due,
				Status:     StatusPending,
			})
			if err != nil {
				outcomes[i] = outcome{failure: &BatchFailure{RecipientID: id, Message: err.Error()}}
				return
			}
			outcomes[i] = outcome{record: rec, recipient: usr}
		}(i, id)
	}
	wg.Wait()

	res := BatchResult{Requested: len(ap.RecipientIDs)}
	notices := make([]*core.EmailMessage, 0, len(outcomes))
	for _, out := range outcomes {
		if out.failure != nil {
			res.Failures = append(res.Failures, *out.failure)
			continue
		}
		res.Assigned = append(res.Assigned, out.record)
		notices = append(notices, &core.EmailMessage{
			To:           []mail.Address{{Name: out.recipient.Name, Address: out.recipient.Email}},
			Subject:      "Nuevo pago asignado: " + out.record.Concept,
			TemplateName: "payment-assigned",
			TemplateData: struct {
				Name    string
				Concept string
				Amount  float64
				DueDate time.Time
			}{out.recipient.Name, out.record.Concept, out.record.Amount, out.record.DueDate},
		})
	}
	if len(notices) > 0 {
		svc.mail.SendMessages(notices...)
	}
	return res, nil
}

// MarkPaid transitions a pending record to paid; the transition is one-way.
func (svc *Service) MarkPaid(ctx context.Context, id string, mp MarkPaid) (PaymentRecord, error) {
	rec, err := svc.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return PaymentRecord{}, err
	}
	if rec.Status == StatusPaid {
		return PaymentRecord{}, core.NewValidationError(ErrAlreadyPaid)
	}

	now := NowFunc().UTC()
	rec.Status = StatusPaid
	rec.PaidAt.SetValid(now)
	rec.Method.SetValid(mp.Method)
	rec.Folio.SetValid(NewFolio(now))
	return svc.repo.UpdatePayment(ctx, rec)
}

func (svc *Service) GetByID(ctx context.Context, id string) (PaymentRecord, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

func (svc *Service) QueryOwned(ctx context.Context, ownerID string) ([]PaymentRecord, error) {
	return svc.repo.FilterPayments(ctx, QueryFilter{OwnerID: ownerID})
}

func (svc *Service) QueryAll(ctx context.Context) ([]PaymentRecord, error) {
	return svc.repo.FilterPayments(ctx, QueryFilter{})
}

// Notifications selects the owner's upcoming-due payments, minus dismissed ones.
func (svc *Service) Notifications(ctx context.Context, ownerID string) ([]Notification, error) {
	records, err := svc.QueryOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids, err := svc.repo.ListDismissals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dismissed := make(map[string]bool, len(ids))
	for _, id := range ids {
		dismissed[id] = true
	}
	return UpcomingDue(records, NowFunc().UTC(), dismissed), nil
}

func (svc *Service) Dismiss(ctx context.Context, ownerID, paymentID string) error {
	rec, err := svc.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return ErrNotFound
	}
	return svc.repo.AddDismissal(ctx, ownerID, paymentID)
}

func (svc *Service) History(ctx context.Context, ownerID string, filter HistoryFilter) ([]PaymentRecord, error) {
	records, err := svc.QueryOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return FilterHistory(records, filter), nil
}

func (svc *Service) MonthlySummary(ctx context.Context, ownerID string) ([]MonthlyGroup, error) {
	records, err := svc.QueryOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return AggregateMonthly(records), nil
}

func (svc *Service) OwnerStats(ctx context.Context, ownerID string) (Stats, error) {
	records, err := svc.QueryOwned(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records, NowFunc().UTC()), nil
}

// ReceiptFor builds the printable receipt data for a paid record.
func (svc *Service) ReceiptFor(ctx context.Context, id string) (Receipt, error) {
	rec, err := svc.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	if rec.Status != StatusPaid {
		return Receipt{}, core.NewValidationError(errors.New("receipt is only available for paid records"))
	}
	payer, err := svc.users.GetByID(ctx, rec.OwnerID)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "resolving payer")
	}
	return Receipt{
		Folio:     rec.Folio.String,
		Concept:   rec.Concept,
		Amount:    rec.Amount,
		Date:      rec.PaidAt.Time,
		PayerName: payer.Name,
		Matricula: payer.Matricula,
		Method:    rec.Method.String,
	}, nil
}

// NewFolio generates a human-readable unique reference code.
func NewFolio(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return "UP-" + now.Format("20060102") + "-" + suffix
}
