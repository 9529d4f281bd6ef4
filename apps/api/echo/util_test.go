package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/language"
	"github.com/camposdev/unipagos/core/payment"
	"github.com/camposdev/unipagos/core/request"
	"github.com/camposdev/unipagos/core/user"
	emailsvc "github.com/camposdev/unipagos/services/email"
	receiptsvc "github.com/camposdev/unipagos/services/receipt"
	inmemdb "github.com/camposdev/unipagos/storage/database/inmem"
)

type testEnv struct {
	app     Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  *user.Service
	paySvc  *payment.Service
	reqSvc  *request.Service
}

func newTestConf() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "UniPagos",
		SecretKey:       []byte("secret"),
		DefaultFromName: "UniPagos",
		DefaultFromAddr: "noreply@localhost",

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Payment: core.PaymentConfig{
			MonthlyFeeAmount:    5000,
			EnrollmentFeeAmount: 8000,
			DueDelta:            30 * 24 * time.Hour,
		},
	}
}

func setup(t *testing.T, renderer ...payment.ReceiptRenderer) *testEnv {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := newTestConf()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	paySvc := payment.NewService(inmemdb.NewPaymentRepository(db), usrSvc, mailSvc, conf)
	reqSvc := request.NewService(inmemdb.NewRequestRepository(db))
	langSvc := language.NewService(inmemdb.NewLanguageRepository(db))

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	request.InitValidators(validate, translator)
	language.InitValidators(validate, translator)

	var rend payment.ReceiptRenderer = receiptsvc.NewPNGRenderer(conf)
	if len(renderer) > 0 {
		rend = renderer[0]
	}

	app := NewServer(&Options{
		Conf:           conf,
		SignalShutdown: func() {},
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		PaymentSvc:     paySvc,
		RequestSvc:     reqSvc,
		LanguageSvc:    langSvc,
		Receipts:       rend,
		Validate:       validate,
		Translator:     translator,
	})
	return &testEnv{app: app, conf: conf, usrRepo: usrRepo, usrSvc: usrSvc, paySvc: paySvc, reqSvc: reqSvc}
}

func (env *testEnv) createUser(t *testing.T, name, matricula, email string, role user.Role, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Matricula: matricula,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	require.NoError(t, usr.SetPassword("V3ry$ecr3t!"))
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(env.conf, GetUserClaims(env.conf, usr))
	require.NoError(t, err)
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
