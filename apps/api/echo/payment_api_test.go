package echoapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposdev/unipagos/core/payment"
	"github.com/camposdev/unipagos/core/user"
)

// failingRenderer simulates a broken rendering backend.
type failingRenderer struct{}

func (failingRenderer) Render(payment.Receipt) ([]byte, error) {
	return nil, errors.New("font cache corrupted")
}

func (env *testEnv) assignPayment(t *testing.T, reviewerToken, ownerID, concept string) payment.PaymentRecord {
	t.Helper()
	body := marchallObj(t, payment.AssignPayments{RecipientIDs: []string{ownerID}, Concept: concept})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments/admin/assign", reviewerToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res payment.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Assigned, 1)
	return res.Assigned[0]
}

func Test_paymentApi_gates(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/payments",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "student cannot review", method: http.MethodGet, path: "/v1/payments/admin",
			token: env.getToken(t, student), wantCode: http.StatusForbidden,
		},
		{
			name: "jefatura reviews", method: http.MethodGet, path: "/v1/payments/admin",
			token: env.getToken(t, jefa), wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "student sees own (empty)", method: http.MethodGet, path: "/v1/payments",
			token: env.getToken(t, student), wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "concept catalog", method: http.MethodGet, path: "/v1/payments/concepts",
			token: env.getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallList(t,
				payment.ConceptInfo{Label: payment.ConceptMensualidad, Category: payment.CategoryColegiatura, Amount: 5000},
				payment.ConceptInfo{Label: payment.ConceptInscripcion, Category: payment.CategoryInscripcion, Amount: 8000},
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_paymentApi_assign(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	beto := env.createUser(t, "Beto", "a20240102", "beto@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)
	jefaToken := env.getToken(t, jefa)

	body := marchallObj(t, payment.AssignPayments{
		RecipientIDs: []string{ana.ID, beto.ID},
		Concept:      payment.ConceptMensualidad,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments/admin/assign", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res payment.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Requested)
	assert.Len(t, res.Assigned, 2)
	assert.Empty(t, res.Failures)
	assert.Equal(t, float64(10000), res.Total())

	// each student only sees their own record
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments", env.getToken(t, ana))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []payment.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owned))
	require.Len(t, owned, 1)
	assert.Equal(t, ana.ID, owned[0].OwnerID)
	assert.Equal(t, payment.StatusPending, owned[0].Status)

	// the review listing sees both
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/admin", jefaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []payment.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	// unknown concept never reaches the repository
	body = marchallObj(t, payment.AssignPayments{RecipientIDs: []string{ana.ID}, Concept: "Estacionamiento"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/admin/assign", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"concept": "unknown payment concept"})}
	checkCodeAndData(t, tt, rec)

	// all recipients unknown: nothing assigned, reported as a failed batch
	body = marchallObj(t, payment.AssignPayments{RecipientIDs: []string{"nope"}, Concept: payment.ConceptMensualidad})
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/admin/assign", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	res = payment.BatchResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, payment.BatchFailed, res.Outcome())
	assert.Len(t, res.Failures, 1)
}

func Test_paymentApi_markPaidAndHistory(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)
	jefaToken := env.getToken(t, jefa)
	anaToken := env.getToken(t, ana)

	rec1 := env.assignPayment(t, jefaToken, ana.ID, payment.ConceptMensualidad)

	// students cannot settle payments themselves
	body := marchallObj(t, payment.MarkPaid{Method: "tarjeta"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments/admin/"+rec1.ID+"/mark-paid", anaToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/admin/"+rec1.ID+"/mark-paid", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var paid payment.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	assert.Equal(t, payment.StatusPaid, paid.Status)
	assert.True(t, paid.PaidAt.Valid)
	assert.True(t, paid.Folio.Valid)
	assert.Equal(t, "tarjeta", paid.Method.String)

	// unknown method is refused
	body = marchallObj(t, payment.MarkPaid{Method: "cheque"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/admin/"+rec1.ID+"/mark-paid", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/admin/nope/mark-paid", jefaToken,
		marchallObj(t, payment.MarkPaid{Method: "tarjeta"}))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.assignPayment(t, jefaToken, ana.ID, payment.ConceptInscripcion)

	// history filters on the derived state
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/history?status=paid", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []payment.PaymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, rec1.ID, records[0].ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/history?search=inscrip", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	records = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, payment.ConceptInscripcion, records[0].Concept)

	// monthly summary conserves amounts
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/monthly", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []payment.MonthlyGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.NotEmpty(t, groups)
	var total, split float64
	for _, g := range groups {
		total += g.Total
		split += g.Paid + g.Pending
	}
	assert.Equal(t, float64(13000), total)
	assert.Equal(t, total, split)

	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/stats", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats payment.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.PaidCount)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, float64(5000), stats.PaidMean)
	assert.Equal(t, 0, stats.DaysSinceLastPaid)
}

func Test_paymentApi_notifications(t *testing.T) {
	defer func() { payment.NowFunc = time.Now }()
	t0 := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	payment.NowFunc = func() time.Time { return t0 }

	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)
	anaToken := env.getToken(t, ana)

	rec1 := env.assignPayment(t, env.getToken(t, jefa), ana.ID, payment.ConceptMensualidad)

	// freshly assigned: due in 30 days, nothing to surface yet
	req, rec := newAuthRequest(http.MethodGet, "/v1/payments/notifications", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifs []payment.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
	assert.Empty(t, notifs)

	// two days before the due date the payment shows up as urgent
	payment.NowFunc = func() time.Time { return rec1.DueDate.Add(-48 * time.Hour) }
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/notifications", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	notifs = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
	require.Len(t, notifs, 1)
	assert.Equal(t, payment.UrgencyUrgent, notifs[0].Urgency)

	// dismissing hides it for this owner
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/notifications/"+rec1.ID+"/dismiss", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/notifications", anaToken)
	env.app.ServeHTTP(rec, req)
	notifs = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
	assert.Empty(t, notifs)

	// unknown payment
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/notifications/nope/dismiss", anaToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_paymentApi_receipt(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	beto := env.createUser(t, "Beto", "a20240102", "beto@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)
	jefaToken := env.getToken(t, jefa)
	anaToken := env.getToken(t, ana)

	rec1 := env.assignPayment(t, jefaToken, ana.ID, payment.ConceptMensualidad)

	// no receipt while pending
	req, rec := newAuthRequest(http.MethodGet, "/v1/payments/"+rec1.ID+"/receipt", anaToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := marchallObj(t, payment.MarkPaid{Method: "efectivo"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments/admin/"+rec1.ID+"/mark-paid", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// owner downloads the rendered PNG
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/"+rec1.ID+"/receipt", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "recibo-")
	assert.NotEmpty(t, rec.Body.Bytes())

	// reviewers may download on the payer's behalf
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/"+rec1.ID+"/receipt", jefaToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// other students cannot even learn the payment exists
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/"+rec1.ID+"/receipt", env.getToken(t, beto))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_paymentApi_receiptFallback(t *testing.T) {
	env := setup(t, failingRenderer{})
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)
	jefaToken := env.getToken(t, jefa)

	rec1 := env.assignPayment(t, jefaToken, ana.ID, payment.ConceptMensualidad)
	body := marchallObj(t, payment.MarkPaid{Method: "transferencia"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments/admin/"+rec1.ID+"/mark-paid", jefaToken, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// rendering is down: the raw receipt data still reaches the payer
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/"+rec1.ID+"/receipt", env.getToken(t, ana))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")

	var receipt payment.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.NotEmpty(t, receipt.Folio)
	assert.Equal(t, payment.ConceptMensualidad, receipt.Concept)
	assert.Equal(t, "Ana", receipt.PayerName)
	assert.Equal(t, "a20240101", receipt.Matricula)
	assert.Equal(t, "transferencia", receipt.Method)
}
