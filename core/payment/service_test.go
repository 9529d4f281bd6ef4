package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/payment"
	"github.com/camposdev/unipagos/core/user"
	emailsvc "github.com/camposdev/unipagos/services/email"
	inmemdb "github.com/camposdev/unipagos/storage/database/inmem"
)

func newTestConf() *core.Config {
	return &core.Config{
		AppName:         "UniPagos",
		DefaultFromName: "UniPagos",
		DefaultFromAddr: "noreply@localhost",
		Payment: core.PaymentConfig{
			MonthlyFeeAmount:    5000,
			EnrollmentFeeAmount: 8000,
			DueDelta:            30 * 24 * time.Hour,
		},
	}
}

func setup(t *testing.T) (*payment.Service, user.Repository, payment.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := newTestConf()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	payRepo := inmemdb.NewPaymentRepository(db)
	return payment.NewService(payRepo, usrSvc, mailSvc, conf), usrRepo, payRepo
}

func createStudent(t *testing.T, repo user.Repository, matricula string) user.User {
	t.Helper()
	usr := user.User{
		Name:      "Student " + matricula,
		Matricula: matricula,
		Email:     matricula + "@test.test",
		Role:      user.RoleStudent,
	}
	usr.SetActive(true)
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func TestService_Assign(t *testing.T) {
	ctx := context.Background()

	t.Run("all recipients succeed", func(t *testing.T) {
		svc, usrRepo, _ := setup(t)
		u1 := createStudent(t, usrRepo, "a20240101")
		u2 := createStudent(t, usrRepo, "a20240102")
		u3 := createStudent(t, usrRepo, "a20240103")

		now := time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC)
		payment.NowFunc = func() time.Time { return now }
		defer func() { payment.NowFunc = time.Now }()

		res, err := svc.Assign(ctx, payment.AssignPayments{
			RecipientIDs: []string{u1.ID, u2.ID, u3.ID},
			Concept:      payment.ConceptMensualidad,
		})
		require.NoError(t, err)

		assert.Equal(t, payment.BatchSucceeded, res.Outcome())
		assert.Equal(t, 3, res.Requested)
		assert.Len(t, res.Assigned, 3)
		assert.Empty(t, res.Failures)

		owners := make(map[string]bool)
		for _, rec := range res.Assigned {
			owners[rec.OwnerID] = true
			assert.Equal(t, payment.StatusPending, rec.Status)
			assert.Equal(t, 5000.0, rec.Amount)
			assert.Equal(t, now, rec.AssignedAt)
			assert.Equal(t, now.Add(30*24*time.Hour), rec.DueDate)
		}
		assert.Len(t, owners, 3)
	})

	t.Run("unknown recipient fails only its own write", func(t *testing.T) {
		svc, usrRepo, payRepo := setup(t)
		u1 := createStudent(t, usrRepo, "a20240104")

		res, err := svc.Assign(ctx, payment.AssignPayments{
			RecipientIDs: []string{u1.ID, "2c49c67e-31b8-4a1b-a45c-2b1b176f3100"},
			Concept:      payment.ConceptInscripcion,
		})
		require.NoError(t, err)

		assert.Equal(t, payment.BatchPartial, res.Outcome())
		assert.Len(t, res.Assigned, 1)
		if assert.Len(t, res.Failures, 1) {
			assert.Equal(t, "2c49c67e-31b8-4a1b-a45c-2b1b176f3100", res.Failures[0].RecipientID)
		}

		// the succeeded write is not rolled back
		stored, err := payRepo.FilterPayments(ctx, payment.QueryFilter{OwnerID: u1.ID})
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})

	t.Run("unknown concept rejects the whole batch", func(t *testing.T) {
		svc, usrRepo, _ := setup(t)
		u1 := createStudent(t, usrRepo, "a20240105")

		_, err := svc.Assign(ctx, payment.AssignPayments{RecipientIDs: []string{u1.ID}, Concept: "Beca"})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, _ := setup(t)
	u1 := createStudent(t, usrRepo, "a20240106")

	res, err := svc.Assign(ctx, payment.AssignPayments{RecipientIDs: []string{u1.ID}, Concept: payment.ConceptMensualidad})
	require.NoError(t, err)
	rec := res.Assigned[0]

	paid, err := svc.MarkPaid(ctx, rec.ID, payment.MarkPaid{Method: "efectivo"})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, paid.Status)
	assert.True(t, paid.PaidAt.Valid)
	assert.Equal(t, "efectivo", paid.Method.String)
	assert.Regexp(t, `^UP-\d{8}-[0-9A-F]{6}$`, paid.Folio.String)

	// one-way transition
	_, err = svc.MarkPaid(ctx, rec.ID, payment.MarkPaid{Method: "tarjeta"})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.MarkPaid(ctx, "2c49c67e-31b8-4a1b-a45c-2b1b176f3100", payment.MarkPaid{Method: "efectivo"})
	assert.ErrorIs(t, err, payment.ErrNotFound)
}

func TestService_NotificationsAndDismiss(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, _ := setup(t)
	u1 := createStudent(t, usrRepo, "a20240107")

	res, err := svc.Assign(ctx, payment.AssignPayments{RecipientIDs: []string{u1.ID}, Concept: payment.ConceptMensualidad})
	require.NoError(t, err)
	rec := res.Assigned[0]

	// a freshly assigned record is due in 30 days: outside the upcoming window
	notifs, err := svc.Notifications(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	// move the clock to 2 days before the due date
	payment.NowFunc = func() time.Time { return rec.DueDate.Add(-2 * 24 * time.Hour) }
	defer func() { payment.NowFunc = time.Now }()

	notifs, err = svc.Notifications(ctx, u1.ID)
	require.NoError(t, err)
	if assert.Len(t, notifs, 1) {
		assert.Equal(t, rec.ID, notifs[0].Payment.ID)
		assert.Equal(t, payment.UrgencyUrgent, notifs[0].Urgency)
	}

	// dismissal survives re-query
	require.NoError(t, svc.Dismiss(ctx, u1.ID, rec.ID))
	notifs, err = svc.Notifications(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	// only the owner can dismiss
	u2 := createStudent(t, usrRepo, "a20240108")
	assert.ErrorIs(t, svc.Dismiss(ctx, u2.ID, rec.ID), payment.ErrNotFound)
}

func TestService_ReceiptFor(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, _ := setup(t)
	u1 := createStudent(t, usrRepo, "a20240109")

	res, err := svc.Assign(ctx, payment.AssignPayments{RecipientIDs: []string{u1.ID}, Concept: payment.ConceptMensualidad})
	require.NoError(t, err)
	rec := res.Assigned[0]

	// pending records have no receipt
	_, err = svc.ReceiptFor(ctx, rec.ID)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	paid, err := svc.MarkPaid(ctx, rec.ID, payment.MarkPaid{Method: "transferencia"})
	require.NoError(t, err)

	receipt, err := svc.ReceiptFor(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, paid.Folio.String, receipt.Folio)
	assert.Equal(t, payment.ConceptMensualidad, receipt.Concept)
	assert.Equal(t, 5000.0, receipt.Amount)
	assert.Equal(t, u1.Name, receipt.PayerName)
	assert.Equal(t, u1.Matricula, receipt.Matricula)
	assert.Equal(t, "transferencia", receipt.Method)
	assert.Equal(t, "recibo-"+receipt.Folio+".png", receipt.FileName())
}
