package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/pricing"
	"julianmorley.ca/con-plar/storefront/pkg/session"
	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

// fakeStoreAPI plays the storefront backend the gateway talks to.
type fakeStoreAPI struct {
	server *httptest.Server
	token  string

	mu        sync.Mutex
	hits      map[string]int
	cart      []models.CartLineItem
	addresses []models.Address
	orders    []models.Order
	lastOrder models.CreateOrderRequest
	failSave  bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeStoreAPI(t *testing.T) *fakeStoreAPI {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "u1",
		"role": "customer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	f := &fakeStoreAPI{token: token, hits: map[string]int{}}
	products := map[string]models.Product{
		"p1": {ID: "p1", Name: "Linen Shirt", Price: 250, Stock: stock(5)},
		"p2": {ID: "p2", Name: "Straw Hat", Price: 90, Stock: stock(0)},
		"p3": {ID: "p3", Name: "Canvas Tote", Price: 40},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /promotions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []models.Promotion{
				{ID: "pr1", Title: "Summer sale", Active: true},
				{ID: "pr2", Title: "New arrivals", Active: true},
			},
		})
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Category{})
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ProductPage{Products: []models.Product{products["p1"]}, Total: 41, Page: 1, Pages: 5})
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := products[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
	mux.HandleFunc("GET /summer-collection", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database unavailable"})
	})
	mux.HandleFunc("GET /instagram", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "feed down"})
	})
	mux.HandleFunc("POST /users/verify-phone", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AuthResult{Token: f.token, User: &models.User{ID: "u1", Name: "Asha"}})
	})
	mux.HandleFunc("GET /users/cart", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Cart{Items: f.cart, ItemCount: models.CountItems(f.cart)})
	}))
	mux.HandleFunc("POST /users/cart", f.authed(func(w http.ResponseWriter, r *http.Request) {
		if f.failSave {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "cart service down"})
			return
		}
		var body struct {
			Items []models.CartLineItem `json:"items"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.cart = body.Items
		writeJSON(w, http.StatusOK, models.Cart{Items: f.cart, ItemCount: models.CountItems(f.cart)})
	}))
	mux.HandleFunc("DELETE /users/cart", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.cart = nil
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))
	mux.HandleFunc("GET /addresses", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.addresses)
	}))
	mux.HandleFunc("POST /addresses", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var in models.AddressInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		a := models.Address{
			ID: fmt.Sprintf("a%d", len(f.addresses)+1), Name: in.Name, Type: in.Type, Address: in.Address,
			City: in.City, State: in.State, Pincode: in.Pincode, Mobile: in.Mobile,
			IsDefault: in.IsDefault || len(f.addresses) == 0,
		}
		f.addresses = append(f.addresses, a)
		writeJSON(w, http.StatusCreated, a)
	}))
	mux.HandleFunc("GET /orders/myorders", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.OrderPage{Orders: f.orders, Total: len(f.orders), Page: 1, Pages: 1})
	}))
	mux.HandleFunc("POST /orders", f.authed(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.lastOrder)
		order := models.Order{
			ID:          fmt.Sprintf("o%d", len(f.orders)+1),
			OrderNumber: fmt.Sprintf("ORD-%d", len(f.orders)+1),
			Status:      models.OrderPending,
			Items:       f.lastOrder.Items,
			Total:       f.lastOrder.Total,
		}
		f.orders = append(f.orders, order)
		f.cart = nil
		writeJSON(w, http.StatusCreated, order)
	}))
	mux.HandleFunc("POST /payments/cod", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var req models.PaymentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusCreated, models.Payment{ID: "pay1", OrderID: req.OrderID, Amount: req.Amount, Status: "PENDING"})
	}))

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits[r.Method+" "+r.URL.Path]++
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func stock(n int) *int { return &n }

func (f *fakeStoreAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, no token"})
			return
		}
		next(w, r)
	}
}

func (f *fakeStoreAPI) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeStoreAPI) setFailSave(fail bool) {
	f.mu.Lock()
	f.failSave = fail
	f.mu.Unlock()
}

type testEnv struct {
	engine   *gin.Engine
	api      *fakeStoreAPI
	registry *storefront.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeStoreAPI(t)
	gw := gateway.New(api.server.URL, nil, gateway.WithCache(gateway.NewCache(time.Minute)))
	backend := session.NewMemoryBackend()
	registry := storefront.NewRegistry(gw, backend, storefront.Settings{
		TokenTTL: time.Hour,
		TaxRate:  pricing.DefaultTaxRate,
	}, nil)
	t.Cleanup(registry.Close)

	cfg := &global.Config{
		Environment:    global.Test,
		AllowedOrigins: []string{"http://localhost:3000"},
		SessionTTL:     time.Hour,
	}
	h := NewHandler(gw, registry, backend, 1, nil)
	return &testEnv{engine: NewEngine(cfg, h, zap.NewNop()), api: api, registry: registry}
}

// browser keeps the session cookie between requests.
type browser struct {
	t       *testing.T
	env     *testEnv
	cookies []*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, env: e}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(b.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.env.engine.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		b.cookies = cookies
	}
	return rec
}

func (b *browser) signIn() {
	b.t.Helper()
	rec := b.do(http.MethodPost, "/api/auth/verify-phone", models.VerifyPhoneInput{Phone: "9876543210", OTP: "123456"})
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
}

type response struct {
	Success   bool                     `json:"success"`
	Data      json.RawMessage          `json:"data"`
	Message   string                   `json:"message"`
	Errors    []global.ValidationError `json:"errors"`
	Retryable bool                     `json:"retryable"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

type listData struct {
	State      global.ListState `json:"state"`
	Count      int              `json:"count"`
	ItemCount  int              `json:"itemCount"`
	Totals     pricing.Totals   `json:"totals"`
	SelectedID string           `json:"selectedId"`
}

func validAddress() models.AddressInput {
	return models.AddressInput{
		Name:    "Asha Rao",
		Type:    models.AddressHome,
		Address: "12 MG Road, Indiranagar",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560038",
		Mobile:  "9876543210",
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.browser(t).do(http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var data map[string]any
	resp := decodeResponse(t, rec, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "OK", data["status"])
}

func TestCatalog_ListStates(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	var categories listData
	rec := b.do(http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &categories)
	assert.Equal(t, global.ListEmpty, categories.State)

	var promotions listData
	rec = b.do(http.MethodGet, "/api/promotions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &promotions)
	assert.Equal(t, global.ListPopulated, promotions.State)
	assert.Equal(t, 2, promotions.Count)
}

func TestCatalog_ProductsTotalCountHeader(t *testing.T) {
	env := newTestEnv(t)
	rec := env.browser(t).do(http.MethodGet, "/api/products?category=shirts&page=1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "41", rec.Header().Get("X-Total-Count"))
}

func TestCatalog_ProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.browser(t).do(http.MethodGet, "/api/products/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "Product not found", resp.Message)
	assert.False(t, resp.Retryable)
}

func TestCatalog_FailedPrimaryReadIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	rec := env.browser(t).do(http.MethodGet, "/api/summer-collection", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.False(t, resp.Success)
	assert.True(t, resp.Retryable)
	assert.Equal(t, "database unavailable", resp.Message)
}

func TestCatalog_InstagramNeverFails(t *testing.T) {
	env := newTestEnv(t)
	rec := env.browser(t).do(http.MethodGet, "/api/instagram", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var posts listData
	decodeResponse(t, rec, &posts)
	assert.Equal(t, global.ListEmpty, posts.State)
}

func TestCart_SignedOutIsRejectedWithoutCallingTheAPI(t *testing.T) {
	env := newTestEnv(t)
	rec := env.browser(t).do(http.MethodGet, "/api/cart", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "Please sign in to continue", resp.Message)
	assert.Zero(t, env.api.hitCount("GET /users/cart"))
}

func TestSession_SignInIsPerBrowser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.browser(t)
	alice.signIn()

	var view sessionView
	decodeResponse(t, alice.do(http.MethodGet, "/api/session", nil), &view)
	assert.True(t, view.SignedIn)
	assert.Equal(t, "u1", view.UserID)

	var other sessionView
	decodeResponse(t, env.browser(t).do(http.MethodGet, "/api/session", nil), &other)
	assert.False(t, other.SignedIn)

	rec := alice.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, alice.do(http.MethodGet, "/api/session", nil), &view)
	assert.False(t, view.SignedIn)
}

func TestCart_AddItemPricesTheCart(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	rec := b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cart listData
	decodeResponse(t, rec, &cart)
	assert.Equal(t, 1, cart.ItemCount)
	assert.Equal(t, 250.0, cart.Totals.Subtotal)
	assert.Equal(t, 45.0, cart.Totals.Tax)
	assert.Equal(t, 295.0, cart.Totals.Total)

	rec = b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &cart)
	assert.Equal(t, 1, cart.Count, "same product merges into one line")
	assert.Equal(t, 3, cart.ItemCount)
}

func TestCart_OutOfStockIsRejected(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	rec := b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p2", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.api.hitCount("POST /users/cart"))
}

func TestCart_ProductWithoutStockFieldCanBeAdded(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	rec := b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p3", Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cart listData
	decodeResponse(t, rec, &cart)
	assert.Equal(t, 1, cart.ItemCount)
	assert.Equal(t, 1, env.api.hitCount("POST /users/cart"))
}

func TestCart_RejectedChangeRestoresTheCart(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 2}).Code)
	env.api.setFailSave(true)

	rec := b.do(http.MethodPut, "/api/cart/items/p1", models.UpdateCartItemRequest{Quantity: 5})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var cart listData
	resp := decodeResponse(t, rec, &cart)
	assert.Equal(t, "We couldn't update your cart. Your previous cart has been restored.", resp.Message)
	assert.Equal(t, 2, cart.ItemCount)
}

func TestCart_QuantityBelowOneIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 2}).Code)
	saves := env.api.hitCount("POST /users/cart")

	rec := b.do(http.MethodPut, "/api/cart/items/p1", models.UpdateCartItemRequest{Quantity: 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart listData
	decodeResponse(t, rec, &cart)
	assert.Equal(t, 2, cart.ItemCount)
	assert.Equal(t, saves, env.api.hitCount("POST /users/cart"))
}

func TestAddresses_InvalidFormNeverReachesTheAPI(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	input := validAddress()
	input.Pincode = "012345"
	rec := b.do(http.MethodPost, "/api/addresses", input)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "pincode", resp.Errors[0].Field)
	assert.Zero(t, env.api.hitCount("POST /addresses"))
}

func TestAddresses_SelectUnknownIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	rec := b.do(http.MethodPut, "/api/addresses/nope/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_RequiresAddress(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 1}).Code)

	rec := b.do(http.MethodPost, "/api/checkout/orders", placeOrderRequest{PaymentMethod: models.PaymentCOD})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "Please select a delivery address", resp.Message)
	assert.Zero(t, env.api.hitCount("POST /orders"))
}

func TestCheckout_FirstOrderCoupon(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 1}).Code)

	rec := b.do(http.MethodPost, "/api/checkout/coupon", couponRequest{Code: "  first100 "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Summary struct {
			Totals pricing.Totals `json:"totals"`
		} `json:"summary"`
	}
	decodeResponse(t, rec, &payload)
	assert.Equal(t, 100.0, payload.Summary.Totals.Discount)
	assert.Equal(t, 195.0, payload.Summary.Totals.Total)

	rec = b.do(http.MethodPost, "/api/checkout/coupon", couponRequest{Code: "SAVE50"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decodeResponse(t, rec, &payload)
	assert.Equal(t, 100.0, payload.Summary.Totals.Discount, "a rejected code keeps the applied coupon")
}

func TestCheckout_PlaceCODOrder(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.signIn()

	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/addresses", validAddress()).Code)
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: "p1", Quantity: 2}).Code)

	var summary struct {
		CanPlaceOrder bool            `json:"canPlaceOrder"`
		Address       *models.Address `json:"address"`
	}
	rec := b.do(http.MethodGet, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &summary)
	require.True(t, summary.CanPlaceOrder)
	assert.Equal(t, "a1", summary.Address.ID)

	rec = b.do(http.MethodPost, "/api/checkout/orders", placeOrderRequest{PaymentMethod: models.PaymentCOD})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placement struct {
		Order   models.Order   `json:"order"`
		Payment models.Payment `json:"payment"`
	}
	decodeResponse(t, rec, &placement)
	assert.Equal(t, "o1", placement.Order.ID)
	assert.Equal(t, "o1", placement.Payment.OrderID)
	assert.Equal(t, 590.0, placement.Payment.Amount)

	env.api.mu.Lock()
	sent := env.api.lastOrder
	env.api.mu.Unlock()
	assert.NotEmpty(t, sent.IdempotencyKey)
	assert.Equal(t, "a1", sent.ShippingAddress.ID)

	var cart listData
	rec = b.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &cart)
	assert.Equal(t, global.ListEmpty, cart.State)

	rec = b.do(http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
}

func TestCartEvents_StreamEndsWhenSessionsClose(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.engine)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/cart/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event:snapshot\n", line)

	env.registry.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(reader)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event stream still open after the sessions were closed")
	}
}
