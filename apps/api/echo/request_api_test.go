package echoapi

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposdev/unipagos/core/request"
	"github.com/camposdev/unipagos/core/user"
)

func (env *testEnv) submitRequest(t *testing.T, token, typ, justification string) request.ConstanciaRequest {
	t.Helper()
	body := marchallObj(t, request.NewRequest{Type: typ, Justification: justification})
	req, rec := newAuthRequest(http.MethodPost, "/v1/requests", token, body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cr request.ConstanciaRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cr))
	return cr
}

func Test_requestApi_submit(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	anaToken := env.getToken(t, ana)

	cr := env.submitRequest(t, anaToken, "calificaciones", "Beca de transporte")
	assert.Equal(t, ana.ID, cr.OwnerID)
	assert.Equal(t, "Ana", cr.RequesterName)
	assert.Equal(t, request.StatusPending, cr.Status)
	assert.Equal(t, float64(120), cr.Amount)
	assert.Equal(t, "Beca de transporte", cr.Justification)

	// empty justification gets the placeholder
	cr = env.submitRequest(t, anaToken, "estudios", "")
	assert.Equal(t, request.DefaultJustification, cr.Justification)
	assert.Equal(t, float64(80), cr.Amount)

	tests := []httpTest{
		{
			name: "unknown type", method: http.MethodPost, path: "/v1/requests",
			token:    anaToken,
			body:     marchallObj(t, request.NewRequest{Type: "titulacion"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "type catalog", method: http.MethodGet, path: "/v1/requests/types",
			token: anaToken, wantCode: http.StatusOK, wantData: marchallObj(t, request.Types),
		},
		{
			name: "auth required", method: http.MethodGet, path: "/v1/requests",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// owner listing returns both submissions
	req, rec := newAuthRequest(http.MethodGet, "/v1/requests", anaToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []request.ConstanciaRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owned))
	assert.Len(t, owned, 2)
}

func Test_requestApi_adminGate(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	jefa := env.createUser(t, "Carla", "j20190001", "carla@test.test", user.RoleJefatura, true)
	serv := env.createUser(t, "Lucía", "s20180001", "lucia@test.test", user.RoleServicios, true)

	// jefatura reviews payments, not school-services requests
	req, rec := newAuthRequest(http.MethodGet, "/v1/requests/admin", env.getToken(t, jefa))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/requests/admin", env.getToken(t, ana))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/requests/admin", env.getToken(t, serv))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_requestApi_workflow(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	serv := env.createUser(t, "Lucía", "s20180001", "lucia@test.test", user.RoleServicios, true)
	servToken := env.getToken(t, serv)

	cr := env.submitRequest(t, env.getToken(t, ana), "estudios", "")

	// pending -> in_process
	req, rec := newAuthRequest(http.MethodPost, "/v1/requests/admin/"+cr.ID+"/approve", servToken,
		marchallObj(t, request.Resolution{Comment: "En elaboración"}))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var got request.ConstanciaRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, request.StatusInProcess, got.Status)
	assert.Equal(t, "En elaboración", got.AdminComment.String)

	// approving twice is refused
	req, rec = newAuthRequest(http.MethodPost, "/v1/requests/admin/"+cr.ID+"/approve", servToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// in_process -> completed
	req, rec = newAuthRequest(http.MethodPost, "/v1/requests/admin/"+cr.ID+"/complete", servToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	got = request.ConstanciaRequest{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, request.StatusCompleted, got.Status)

	// completed is terminal
	req, rec = newAuthRequest(http.MethodPost, "/v1/requests/admin/"+cr.ID+"/reject", servToken,
		marchallObj(t, request.Resolution{Comment: "nope"}))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// rejection needs a reason
	cr2 := env.submitRequest(t, env.getToken(t, ana), "inscripcion", "")
	req, rec = newAuthRequest(http.MethodPost, "/v1/requests/admin/"+cr2.ID+"/reject", servToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/requests/admin/"+cr2.ID+"/reject", servToken,
		marchallObj(t, request.Resolution{Comment: "Adeudo vigente"}))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	got = request.ConstanciaRequest{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, request.StatusRejected, got.Status)
	assert.Equal(t, "Adeudo vigente", got.AdminComment.String)

	// unknown request
	req, rec = newAuthRequest(http.MethodPost, "/v1/requests/admin/nope/approve", servToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_requestApi_watch(t *testing.T) {
	env := setup(t)
	ana := env.createUser(t, "Ana", "a20240101", "ana@test.test", user.RoleStudent, true)
	serv := env.createUser(t, "Lucía", "s20180001", "lucia@test.test", user.RoleServicios, true)

	cr := env.submitRequest(t, env.getToken(t, ana), "estudios", "")

	srv := httptest.NewServer(env.app)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/requests/admin/watch", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.getToken(t, serv))

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// the first event is the current state
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var snapshot []request.ConstanciaRequest
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, cr.ID, snapshot[0].ID)
}
