package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/client"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/realtime"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository/memstore"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type fakePinger struct{ err error }

func (p *fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *memstore.Store
	hub     *realtime.Hub
	db      *fakePinger
	authn   *auth.Authenticator
	admin   *service.AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	st := memstore.New()
	hub := realtime.NewHub(log.Logger)
	authn := auth.NewAuthenticator("handler-test-secret-0123456789", time.Hour)
	lc := service.NewLifecycle(st.Customers(), log)
	admin := service.NewAdminService(st.Employees(), st.Branches(), st.Customers(), st.Analytics(), log)

	svc := Services{
		Customers:     service.NewCustomerService(lc, "https://dealer.example"),
		Accounts:      service.NewAccountsService(lc),
		RTO:           service.NewRTOService(lc),
		Bookings:      service.NewServiceBookingService(st.ServiceBookings(), st.Employees(), log),
		Admin:         admin,
		Notifications: service.NewNotificationService(st.Notifications(), client.NewNotificationPublisher(hub, log.Logger), log),
		Auth:          service.NewAuthService(st.Employees(), authn, log),
	}
	db := &fakePinger{}
	h := NewHTTPHandler(svc, authn, hub, db, log)
	return &testEnv{
		t:       t,
		handler: h.Routes(RouterConfig{AllowedOrigins: []string{"http://localhost:3001"}, RequestTimeout: 5 * time.Second}),
		store:   st,
		hub:     hub,
		db:      db,
		authn:   authn,
		admin:   admin,
	}
}

// employee creates an employee and returns their id and bearer token.
func (e *testEnv) employee(role repository.Role, email string) (int64, string) {
	e.t.Helper()
	emp, err := e.admin.CreateEmployee(context.Background(), &service.CreateEmployeeRequest{
		Name: email, Email: email, Phone: "555", Role: string(role), Password: "password1",
	})
	if err != nil {
		e.t.Fatalf("create employee: %v", err)
	}
	token, _, err := e.authn.Issue(auth.Principal{ID: emp.ID, Role: emp.Role})
	if err != nil {
		e.t.Fatal(err)
	}
	return emp.ID, token
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatal(err)
		}
	}
	return e.do(method, path, token, &buf, "application/json")
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeCustomer(t *testing.T, rec *httptest.ResponseRecorder) *repository.Customer {
	t.Helper()
	var res customerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if res.Customer == nil {
		t.Fatalf("no customer in %q", rec.Body.String())
	}
	return res.Customer
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return res["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Fatalf("healthy: %d %s", rec.Code, rec.Body.String())
	}

	env.db.err = stderrors.New("connection refused")
	rec = env.do(http.MethodGet, "/health", "", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil, "")
	if _, err := uuid.Parse(rec.Header().Get(requestIDHeader)); err != nil {
		t.Fatalf("generated request id %q: %v", rec.Header().Get(requestIDHeader), err)
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != id {
		t.Fatalf("request id = %q, want %q", got, id)
	}
}

func TestAuthGates(t *testing.T) {
	env := newTestEnv(t)
	_, rtoToken := env.employee(repository.RoleRTO, "rto@x.io")

	tests := []struct {
		name   string
		token  string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "no credential"},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, "invalid credential"},
		{"wrong role", rtoToken, http.StatusForbidden, "insufficient permissions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/customers", tt.token, nil, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := errorBody(t, rec); got != tt.msg {
				t.Fatalf("error = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.employee(repository.RoleSales, "s@x.io")

	rec := env.doJSON(http.MethodPost, "/auth/login", "", map[string]string{"email": "s@x.io", "password": "password1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Token    string `json:"token"`
		Employee struct {
			ID           int64  `json:"id"`
			PasswordHash string `json:"password_hash"`
		} `json:"employee"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Token == "" || res.Employee.ID != id || res.Employee.PasswordHash != "" {
		t.Fatalf("login response = %s", rec.Body.String())
	}

	rec = env.doJSON(http.MethodPost, "/auth/login", "", map[string]string{"email": "s@x.io", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", rec.Code)
	}
}

func TestCustomerPipelineOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, sales := env.employee(repository.RoleSales, "s@x.io")
	_, accounts := env.employee(repository.RoleAccounts, "a@x.io")
	_, rto := env.employee(repository.RoleRTO, "r@x.io")

	rec := env.doJSON(http.MethodPost, "/customers", sales, map[string]any{
		"customer_name": "A", "phone_number": "555", "vehicle": "Model X",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created customerResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created.UniqueLink != "https://dealer.example/customer-details/1" {
		t.Fatalf("unique link = %q", created.UniqueLink)
	}

	body, ct := multipartBody(t, map[string]string{
		"dob": "1990-01-02", "address": "1 Main St", "mobile_1": "555-0101", "email": "a@example.com",
		"nominee": "B", "nominee_relation": "Spouse", "payment_mode": "Cash",
	}, map[string][]byte{
		"aadhar_front": pngBytes, "aadhar_back": pngBytes, "passport_photo": pngBytes,
	})
	rec = env.do(http.MethodPut, "/customers/1", "", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("submission: %d %s", rec.Code, rec.Body.String())
	}
	if c := decodeCustomer(t, rec); c.Status != repository.StatusSubmitted {
		t.Fatalf("status = %s", c.Status)
	}

	rec = env.doJSON(http.MethodPut, "/customers/1", sales, map[string]any{"ex_showroom": "100000", "tax": 5000})
	if rec.Code != http.StatusOK {
		t.Fatalf("pricing: %d %s", rec.Code, rec.Body.String())
	}
	if c := decodeCustomer(t, rec); !c.TotalPrice.Equal(decimal.NewFromInt(105000)) {
		t.Fatalf("total = %s", c.TotalPrice)
	}

	rec = env.doJSON(http.MethodPut, "/customers/1", sales, map[string]any{"status": "Delivered"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: %d", rec.Code)
	}
	rec = env.doJSON(http.MethodPut, "/customers/1", sales, map[string]any{"status": "Verified"})
	if c := decodeCustomer(t, rec); !c.SalesVerified {
		t.Fatalf("sales verify: %s", rec.Body.String())
	}

	if rec = env.do(http.MethodPut, "/accounts/customers/1/verify", accounts, nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("accounts verify: %d %s", rec.Code, rec.Body.String())
	}
	if rec = env.do(http.MethodPut, "/rto/customers/1/verify", rto, nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("rto verify: %d %s", rec.Code, rec.Body.String())
	}
	if rec = env.do(http.MethodPut, "/rto/customers/1/verify", rto, nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second rto verify: %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/customers/1", "", nil, "")
	if c := decodeCustomer(t, rec); c.AadharFront != nil || c.TotalPrice.IsZero() {
		t.Fatalf("public summary = %s", rec.Body.String())
	}
}

func TestDualModeRejectsNonSalesBearer(t *testing.T) {
	env := newTestEnv(t)
	_, sales := env.employee(repository.RoleSales, "s@x.io")
	_, accounts := env.employee(repository.RoleAccounts, "a@x.io")
	env.doJSON(http.MethodPost, "/customers", sales, map[string]any{"customer_name": "A", "phone_number": "5", "vehicle": "V"})

	if rec := env.doJSON(http.MethodPut, "/customers/1", accounts, map[string]any{"tax": 1}); rec.Code != http.StatusForbidden {
		t.Fatalf("accounts bearer: %d", rec.Code)
	}
	if rec := env.doJSON(http.MethodPut, "/customers/1", "expired-or-forged", map[string]any{"tax": 1}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad bearer: %d", rec.Code)
	}
}

func TestCustomerImageEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, sales := env.employee(repository.RoleSales, "s@x.io")
	_, other := env.employee(repository.RoleSales, "o@x.io")
	env.doJSON(http.MethodPost, "/customers", sales, map[string]any{"customer_name": "A", "phone_number": "5", "vehicle": "V"})

	body, ct := multipartBody(t, nil, map[string][]byte{"aadhar_front": pngBytes})
	if rec := env.do(http.MethodPut, "/customers/1", "", body, ct); rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}

	rec := env.do(http.MethodGet, "/customers/1/images/aadhar_front", sales, nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Fatalf("image: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := env.do(http.MethodGet, "/customers/1/images/aadhar_front", other, nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign image: %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/customers/1/images/chassis_image", sales, nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind: %d", rec.Code)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	_, sales := env.employee(repository.RoleSales, "s@x.io")
	env.doJSON(http.MethodPost, "/customers", sales, map[string]any{"customer_name": "A", "phone_number": "5", "vehicle": "V"})

	body, ct := multipartBody(t, nil, map[string][]byte{"passport_photo": []byte("%PDF-1.7")})
	rec := env.do(http.MethodPut, "/customers/1", "", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := errorBody(t, rec); !strings.Contains(got, "JPEG/PNG") {
		t.Fatalf("error = %q", got)
	}
}

func TestAdminEmployeeEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.employee(repository.RoleAdmin, "admin@x.io")

	rec := env.doJSON(http.MethodPost, "/admin/employees", admin, map[string]any{
		"name": "S", "email": "s@x.io", "phone": "1", "role": "sales", "password": "pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.doJSON(http.MethodPost, "/admin/employees", admin, map[string]any{
		"name": "S2", "email": "s@x.io", "phone": "1", "role": "sales", "password": "pw",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/admin/employees?role=sales", admin, nil, "")
	var list struct {
		Employees []repository.Employee `json:"employees"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.Employees) != 1 {
		t.Fatalf("list: %s", rec.Body.String())
	}
	if rec := env.do(http.MethodGet, "/admin/employees?role=chef", admin, nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role filter: %d", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/admin/employees/2", admin, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(http.MethodGet, "/admin/analytics", admin, nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("analytics: %d", rec.Code)
	}
}

func TestInternalErrorsAreMasked(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.employee(repository.RoleAdmin, "admin@x.io")
	env.employee(repository.RoleSales, "s@x.io")
	env.store.FailFanOutAfter(0)

	rec := env.doJSON(http.MethodPost, "/notifications/send", admin, map[string]any{
		"title": "t", "message": "m", "targetType": "all",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := errorBody(t, rec); got != "internal server error" {
		t.Fatalf("error = %q", got)
	}
}

func TestNotificationSocketReceivesPush(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.employee(repository.RoleAdmin, "admin@x.io")
	salesID, sales := env.employee(repository.RoleSales, "s@x.io")

	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + sales
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Connections(salesID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("socket never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := env.doJSON(http.MethodPost, "/notifications/send", admin, map[string]any{
		"title": "Meeting", "message": "3pm", "targetType": "role", "targetId": "sales",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Event string                   `json:"event"`
		Data  client.NotificationEvent `json:"data"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Event != client.EventNotificationNew || ev.Data.Title != "Meeting" {
		t.Fatalf("event = %+v", ev)
	}

	rec = env.do(http.MethodGet, "/notifications/unread-count/2", sales, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Fatalf("unread: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(http.MethodGet, "/notifications/employee/1", sales, nil, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign list: %d", rec.Code)
	}
}

func TestSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/ws/notifications", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}
