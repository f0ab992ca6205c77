package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentkit/rentalcore/internal/rental"
	"github.com/rentkit/rentalcore/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	st := memory.NewStore()
	st.SeedProduct(rental.Product{
		ID: "chair", Name: "Beach chair",
		WeeklyPrice: decimal.NewFromInt(30), TotalStock: 5, IsActive: true,
	})
	st.SetPricingConfig(rental.PricingConfig{
		WeeklyPercentIncrease: decimal.NewFromInt(10),
		MinOrderValue:         decimal.NewFromInt(50),
		AirportMinOrder:       decimal.NewFromInt(80),
		BundleDiscountPercent: decimal.NewFromInt(5),
	})

	svc := rental.NewService(st)
	svc.Now = func() time.Time { return time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC) }

	r := NewRouter()
	h := &RentalsHandler{Service: svc, Name: "rental-api-test"}
	h.Register(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createTestOrder(t *testing.T, ts *httptest.Server) CreateOrderResp {
	t.Helper()
	resp := postJSON(t, ts.URL+"/orders", CreateOrderReq{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		RentalStart:   "2026-08-01",
		RentalEnd:     "2026-08-08",
		Items:         []rental.ItemInput{{ProductID: "chair", Qty: 2}},
		TermsAccepted: true,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	return decodeBody[CreateOrderResp](t, resp)
}

func TestCreateAndGetOrder(t *testing.T) {
	ts, _ := newTestServer(t)

	created := createTestOrder(t, ts)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, "60", created.Total)
	assert.False(t, created.Idempotent)

	resp, err := http.Get(ts.URL + "/orders/" + created.OrderID)
	require.NoError(t, err)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "60", body["total"])
}

func TestGetOrderNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/orders/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateOrderRejectsMissingTerms(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/orders", CreateOrderReq{
		CustomerName: "Ada",
		RentalStart:  "2026-08-01",
		RentalEnd:    "2026-08-08",
		Items:        []rental.ItemInput{{ProductID: "chair", Qty: 1}},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransitionEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createTestOrder(t, ts)

	resp := postJSON(t, ts.URL+"/orders/"+created.OrderID+"/transition", TransitionReq{Status: "CONFIRMED"})
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PENDING", body["from"])
	assert.Equal(t, "CONFIRMED", body["status"])

	// skipping DELIVERED -> COMPLETED directly is a conflict
	resp = postJSON(t, ts.URL+"/orders/"+created.OrderID+"/transition", TransitionReq{Status: "COMPLETED"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAmendEndpoint(t *testing.T) {
	ts, st := newTestServer(t)
	created := createTestOrder(t, ts)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/orders/"+created.OrderID+"/items",
		bytes.NewReader(mustJSON(t, AmendReq{Items: []rental.ItemInput{{ProductID: "chair", Qty: 5}}})))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "150", body["total"])

	n, err := st.CountBlocks(req.Context(), created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestAvailabilityEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	createTestOrder(t, ts)

	resp, err := http.Get(fmt.Sprintf("%s/availability?product_id=chair&start=2026-08-01&end=2026-08-08", ts.URL))
	require.NoError(t, err)
	avail := decodeBody[rental.Availability](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, avail.TotalStock)
	assert.Equal(t, 2, avail.MaxReserved)
	assert.Equal(t, 3, avail.Available)
}

func TestQuoteEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/quotes", QuoteReq{
		RentalStart: "2026-08-01",
		RentalEnd:   "2026-08-11", // 10 days, 3 extra at 10%
		Items:       []rental.ItemInput{{ProductID: "chair", Qty: 1}},
	})
	res := decodeBody[rental.PricingResult](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, res.Days)
	assert.True(t, res.ExtraDaysCharge.Equal(decimal.NewFromInt(9)), "extra = %s", res.ExtraDaysCharge)
	// 30 + 9 = 39, topped up to the 50 minimum
	assert.True(t, res.DeliveryFee.Equal(decimal.NewFromInt(11)), "fee = %s", res.DeliveryFee)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(50)), "total = %s", res.Total)
}

func TestStockReportEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	createTestOrder(t, ts)

	resp, err := http.Get(ts.URL + "/stock-report?date=2026-08-03")
	require.NoError(t, err)
	report := decodeBody[rental.StockReport](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, report.Healthy, 1)
	assert.Equal(t, 2, report.Healthy[0].Reserved)
}

func TestListProductsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/products")
	require.NoError(t, err)
	products := decodeBody[[]map[string]any](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, products, 1)
	assert.Equal(t, "chair", products[0]["id"])
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
