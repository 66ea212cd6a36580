package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/webstore-backoffice/internal/domain/auth"
	"github.com/xenking/webstore-backoffice/internal/domain/client"
	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/order"
	"github.com/xenking/webstore-backoffice/internal/domain/product"
	"github.com/xenking/webstore-backoffice/internal/domain/report"
	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

type testEnv struct {
	server *httptest.Server
	store  *memStore
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	users := &fakeUsers{s: store}
	authSvc := auth.NewService(users, auth.NewTokenIssuer([]byte("test-secret"), time.Hour))
	orderSvc := order.NewService(&fakeOrderStore{s: store})
	reportSvc := report.NewService(fakeReports{})

	h := New(authSvc,
		users,
		&fakeProducts{s: store},
		&fakeClients{s: store},
		&fakeDiscounts{s: store},
		&fakeRefData{s: store},
		orderSvc,
		reportSvc,
	)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, auth: authSvc}
}

// tokenFor registers a user with the given role and returns a bearer token.
func (e *testEnv) tokenFor(t *testing.T, role string) string {
	t.Helper()
	_, token, err := e.auth.Register(context.Background(), auth.RegisterRequest{
		Username: "user-" + newTestID()[:8],
		Email:    newTestID()[:8] + "@example.com",
		Password: "s3cret",
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) seedClient(t *testing.T) *client.Client {
	t.Helper()
	c := &client.Client{
		ID:        newTestID(),
		FirstName: "Jamie",
		LastName:  "Doe",
		Email:     newTestID()[:8] + "@client.example.com",
	}
	require.NoError(t, (&fakeClients{s: e.store}).Create(context.Background(), c))
	return c
}

func (e *testEnv) seedProduct(t *testing.T, price string, qty int) *product.Product {
	t.Helper()
	p := &product.Product{
		ID:       newTestID(),
		Name:     "Trail Sneaker",
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		Active:   true,
	}
	require.NoError(t, (&fakeProducts{s: e.store}).Create(context.Background(), p))
	return p
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reg := decodeBody[map[string]any](t, resp)
	assert.NotEmpty(t, reg["token"])

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody[map[string]any](t, resp)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	resp = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, user.RoleSimple, me["role"])
}

func TestAuth_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, http.StatusUnauthorized, body.Code)
}

func TestAuth_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.tokenFor(t, user.RoleSimple)

	resp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "ghost@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	simple := env.tokenFor(t, user.RoleSimple)
	advanced := env.tokenFor(t, user.RoleAdvanced)

	body := map[string]any{"name": "Runner", "price": "99.90", "quantity": 10}

	resp := env.do(t, http.MethodPost, "/api/products", simple, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/products", advanced, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[productDTO](t, resp)
	assert.Equal(t, "Runner", created.Name)
	assert.Equal(t, 10, created.AvailableQuantity)
	assert.True(t, created.IsActive)
}

func TestProducts_GetNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleSimple)

	resp := env.do(t, http.MethodGet, "/api/products/"+newTestID(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClients_CRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/clients", token, map[string]any{
		"first_name": "Jamie",
		"last_name":  "Doe",
		"email":      "jamie@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[clientDTO](t, resp)

	// Duplicate email conflicts.
	resp = env.do(t, http.MethodPost, "/api/clients", token, map[string]any{
		"first_name": "Other",
		"last_name":  "Person",
		"email":      "jamie@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/clients/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[clientDTO](t, resp)
	assert.Equal(t, "jamie@example.com", got.Email)

	resp = env.do(t, http.MethodDelete, "/api/clients/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClients_DeleteWithOrdersConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)
	c := env.seedClient(t)
	p := env.seedProduct(t, "10.00", 5)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/clients/"+c.ID, token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDiscounts_CreateAndOverlap(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdvanced)
	p := env.seedProduct(t, "100.00", 5)

	window := map[string]any{
		"product_id":          p.ID,
		"discount_percentage": "20",
		"start_date":          time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_date":            time.Now().Add(time.Hour).Format(time.RFC3339),
	}

	resp := env.do(t, http.MethodPost, "/api/discounts", token, window)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/discounts", token, window)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDiscounts_BothKindsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)
	p := env.seedProduct(t, "100.00", 5)

	resp := env.do(t, http.MethodPost, "/api/discounts", token, map[string]any{
		"product_id":          p.ID,
		"discount_percentage": "20",
		"discount_amount":     "5.00",
		"start_date":          time.Now().Format(time.RFC3339),
		"end_date":            time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, discount.ErrBothKinds.Error(), body.Message)
}

func TestOrders_CreateWithDiscount(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleSimple)
	c := env.seedClient(t)
	p := env.seedProduct(t, "100.00", 10)

	pct := decimal.RequireFromString("20")
	env.store.discounts["d1"] = &discount.Discount{
		ID:         "d1",
		ProductID:  p.ID,
		Percentage: &pct,
		StartDate:  time.Now().Add(-time.Hour),
		EndDate:    time.Now().Add(time.Hour),
		Active:     true,
	}

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	o := decodeBody[orderDTO](t, resp)
	assert.Equal(t, "pending", o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("160.00")), "total %s", o.TotalAmount)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, o.Items[0].DiscountApplied.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, "Trail Sneaker", o.Items[0].ProductName)
	assert.Equal(t, c.FirstName, o.ClientFirstName)
	assert.NotEmpty(t, o.OrderNumber)
}

func TestOrders_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleSimple)
	c := env.seedClient(t)
	p := env.seedProduct(t, "10.00", 3)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 4}},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, body.Message, "insufficient stock")

	// Nothing was committed.
	assert.Empty(t, env.store.orders)
}

func TestOrders_UnknownClient(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleSimple)
	p := env.seedProduct(t, "10.00", 3)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": newTestID(),
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders_EmptyItems(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleSimple)
	c := env.seedClient(t)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrders_StatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)
	c := env.seedClient(t)
	p := env.seedProduct(t, "10.00", 5)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[orderDTO](t, resp)

	// Skipping confirmed is rejected.
	resp = env.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", token,
		map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", token,
		map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", decodeBody[orderDTO](t, resp).Status)
}

func TestOrders_ConfirmedReservesStock(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)
	c := env.seedClient(t)
	p := env.seedProduct(t, "10.00", 3)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[orderDTO](t, resp)

	// Pending does not reserve: all 3 still available.
	resp = env.do(t, http.MethodGet, "/api/products/"+p.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decodeBody[productDTO](t, resp).AvailableQuantity)

	resp = env.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", token,
		map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/products/"+p.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeBody[productDTO](t, resp).AvailableQuantity)

	// A new order for 2 units now conflicts.
	resp = env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 2}},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestOrders_CancelShippedRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)
	c := env.seedClient(t)
	p := env.seedProduct(t, "10.00", 5)

	resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"client_id": c.ID,
		"items":     []map[string]any{{"product_id": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[orderDTO](t, resp)

	for _, status := range []string{"confirmed", "processing", "shipped"} {
		resp = env.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", token,
			map[string]any{"status": status})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/orders/"+created.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestOrders_ListPaginationEnvelope(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)
	c := env.seedClient(t)
	p := env.seedProduct(t, "10.00", 50)

	for range 3 {
		resp := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
			"client_id": c.ID,
			"items":     []map[string]any{{"product_id": p.ID, "quantity": 1}},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/orders?page=1&limit=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data       []orderDTO `json:"data"`
		Pagination pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Pagination.Total)
	assert.Equal(t, 2, body.Pagination.Limit)
	assert.Equal(t, 2, body.Pagination.TotalPages)
}

func TestUsers_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)
	advanced := env.tokenFor(t, user.RoleAdvanced)

	resp := env.do(t, http.MethodGet, "/api/users", advanced, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data       []userDTO  `json:"data"`
		Pagination pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Pagination.Total)
}

func TestUsers_Deactivate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)
	simple := env.tokenFor(t, user.RoleSimple)

	// Find the simple user through the admin listing.
	resp := env.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Data []userDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))

	var target userDTO
	for _, u := range listing.Data {
		if u.Role == user.RoleSimple {
			target = u
		}
	}
	require.NotEmpty(t, target.ID)

	resp = env.do(t, http.MethodPatch, "/api/users/"+target.ID+"/active", admin,
		map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodeBody[userDTO](t, resp).IsActive)

	// The deactivated user is rejected on their next request.
	resp = env.do(t, http.MethodGet, "/api/products", simple, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsers_CannotDeactivateSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/auth/me", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[map[string]string](t, resp)

	resp = env.do(t, http.MethodPatch, "/api/users/"+me["id"]+"/active", admin,
		map[string]any{"is_active": false})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReports_Summary(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/reports/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Contains(t, body, "today")
	assert.Contains(t, body, "this_month")
	assert.Contains(t, body, "top_products")
}

func TestReports_BadDate(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/reports/earnings/daily?date=notadate", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReports_RangeEarnings(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	// Both bounds are required.
	resp := env.do(t, http.MethodGet, "/api/reports/earnings/range?start_date=2026-08-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Inverted ranges are rejected.
	resp = env.do(t, http.MethodGet,
		"/api/reports/earnings/range?start_date=2026-08-10&end_date=2026-08-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet,
		"/api/reports/earnings/range?start_date=2026-08-01&end_date=2026-08-10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[rangeEarningsDTO](t, resp)
	assert.Equal(t, "2026-08-01", body.StartDate)
	assert.Equal(t, "2026-08-10", body.EndDate)
	assert.Equal(t, 1, body.TotalOrders)
	require.Len(t, body.Days, 1)
}

func TestReports_LowStockAndSales(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/reports/products/low-stock?threshold=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, path := range []string{
		"/api/reports/products/low-stock",
		"/api/reports/sales/category",
		"/api/reports/sales/brand",
	} {
		resp = env.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body := decodeBody[map[string]any](t, resp)
		assert.Contains(t, body, "data", path)
	}
}

func TestReference_CRUDAndRoleGate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)
	advanced := env.tokenFor(t, user.RoleAdvanced)

	// Writes are admin-only.
	resp := env.do(t, http.MethodPost, "/api/reference/categories", advanced,
		map[string]any{"name": "Sneakers"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/reference/categories", admin,
		map[string]any{"name": "Sneakers"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[refEntryDTO](t, resp)
	assert.Equal(t, "Sneakers", created.Name)

	// Duplicate names conflict.
	resp = env.do(t, http.MethodPost, "/api/reference/categories", admin,
		map[string]any{"name": "Sneakers"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Any authenticated role can read.
	resp = env.do(t, http.MethodGet, "/api/reference/categories", advanced, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Data []refEntryDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Data, 1)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/reference/categories/%d", created.ID),
		admin, map[string]any{"name": "Running Shoes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Running Shoes", decodeBody[refEntryDTO](t, resp).Name)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/reference/categories/%d", created.ID),
		admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestReference_UnknownKind(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/reference/flavors", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReference_DeleteInUse(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/reference/brands", admin,
		map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	brand := decodeBody[refEntryDTO](t, resp)

	resp = env.do(t, http.MethodPost, "/api/products", admin, map[string]any{
		"name": "Acme Boot", "price": "59.90", "quantity": 4, "brand_id": brand.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/reference/brands/%d", brand.ID),
		admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProducts_UnknownReferenceRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/products", token, map[string]any{
		"name": "Ghost Shoe", "price": "10.00", "quantity": 1, "category_id": 999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	p := env.seedProduct(t, "10.00", 1)
	resp = env.do(t, http.MethodPut, "/api/products/"+p.ID, token,
		map[string]any{"brand_id": 999})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUsers_AdminCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "s3cret",
		"role":     user.RoleAdvanced,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[map[string]any](t, resp)
	assert.NotContains(t, created, "token")

	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp = env.do(t, http.MethodGet, "/api/users/"+id, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[userDTO](t, resp)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, user.RoleAdvanced, got.Role)

	resp = env.do(t, http.MethodGet, "/api/users/"+newTestID(), admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsers_UpdateRole(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[userDTO](t, resp)
	require.Equal(t, user.RoleSimple, created.Role)

	resp = env.do(t, http.MethodPut, "/api/users/"+created.ID, admin,
		map[string]any{"role": user.RoleAdvanced})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user.RoleAdvanced, decodeBody[userDTO](t, resp).Role)

	resp = env.do(t, http.MethodPut, "/api/users/"+created.ID, admin,
		map[string]any{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsers_ResetPassword(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenFor(t, user.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "0ldpass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[userDTO](t, resp)

	// Too-short replacements are rejected before any change.
	resp = env.do(t, http.MethodPatch, "/api/users/"+created.ID+"/reset-password", admin,
		map[string]any{"new_password": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPatch, "/api/users/"+created.ID+"/reset-password", admin,
		map[string]any{"new_password": "n3wpass"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "dave@example.com", "password": "0ldpass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "dave@example.com", "password": "n3wpass",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
