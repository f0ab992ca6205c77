package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/rentkit/rentalcore/internal/kafka"
	"github.com/rentkit/rentalcore/internal/metrics"
	"github.com/rentkit/rentalcore/internal/redisx"
	"github.com/rentkit/rentalcore/internal/rental"
)

const dateLayout = "2006-01-02"

// RentalsHandler exposes the reservation/pricing core over HTTP. Producer and
// Redis are optional; without them the handlers skip events and caching.
type RentalsHandler struct {
	Service        *rental.Service
	OrderProducer  *kafkax.Producer // rental.order.created
	StatusProducer *kafkax.Producer // rental.order.status
	Redis          *redis.Client
	Metrics        *metrics.Metrics
	Name           string // producer name stamped on events
}

func (h *RentalsHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/transition", h.transitionOrder)
	r.Put("/orders/{id}/items", h.amendOrder)
	r.Get("/availability", h.checkAvailability)
	r.Post("/quotes", h.quote)
	r.Get("/stock-report", h.stockReport)
	r.Get("/products", h.listProducts)
}

type CreateOrderReq struct {
	ExternalRef   string             `json:"external_ref"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	DeliveryType  string             `json:"delivery_type"`
	RentalStart   string             `json:"rental_start"` // YYYY-MM-DD
	RentalEnd     string             `json:"rental_end"`
	Items         []rental.ItemInput `json:"items"`
	TermsAccepted bool               `json:"terms_accepted"`
}

type CreateOrderResp struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	Total      string `json:"total"`
	Idempotent bool   `json:"idempotent"`
}

func (h *RentalsHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CustomerName == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	start, end, err := parseRange(req.RentalStart, req.RentalEnd)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, existed, err := h.Service.CreateOrder(ctx, rental.CreateOrderInput{
		ExternalRef:   req.ExternalRef,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		DeliveryType:  deliveryType(req.DeliveryType),
		RentalStart:   start,
		RentalEnd:     end,
		Items:         req.Items,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if !existed {
		if h.Metrics != nil {
			h.Metrics.OrdersCreated.Inc()
		}
		h.cacheStatus(ctx, order)
		if req.ExternalRef != "" && h.Redis != nil {
			idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalRef)
			_ = h.Redis.Set(ctx, idemKey, order.ID, redisx.TTLIdempotency).Err()
		}
		h.publishCreated(r, order, req.Items)
	}

	writeJSON(w, http.StatusAccepted, CreateOrderResp{
		OrderID:    order.ID,
		Status:     string(order.Status),
		Total:      order.TotalPrice.Round(2).String(),
		Idempotent: existed,
	})
}

func (h *RentalsHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cached status first
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	order, err := h.Service.Store.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]any{"status": order.Status, "total": order.TotalPrice.Round(2).String()}
	h.cacheStatus(ctx, order)
	writeJSON(w, http.StatusOK, body)
}

type TransitionReq struct {
	Status string `json:"status"`
}

func (h *RentalsHandler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	var req TransitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, from, err := h.Service.Transition(ctx, chi.URLParam(r, "id"), rental.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.OrderTransitions.WithLabelValues(string(order.Status)).Inc()
	}
	h.cacheStatus(ctx, order)
	h.publishStatus(r, order, from)

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"from":     from,
		"status":   order.Status,
	})
}

type AmendReq struct {
	Items []rental.ItemInput `json:"items"`
}

func (h *RentalsHandler) amendOrder(w http.ResponseWriter, r *http.Request) {
	var req AmendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Service.Amend(ctx, chi.URLParam(r, "id"), req.Items)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, order)
	h.publishAmended(r, order, req.Items)

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"total":    order.TotalPrice.Round(2).String(),
	})
}

func (h *RentalsHandler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing product_id"})
		return
	}
	start, end, err := parseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyAvailability, productID,
		start.Format(dateLayout), end.Format(dateLayout))
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	avail, err := h.Service.CheckAvailability(ctx, productID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, string(kafkax.MustMarshal(avail)), redisx.TTLAvailability).Err()
	}
	writeJSON(w, http.StatusOK, avail)
}

type QuoteReq struct {
	DeliveryType string             `json:"delivery_type"`
	RentalStart  string             `json:"rental_start"`
	RentalEnd    string             `json:"rental_end"`
	Items        []rental.ItemInput `json:"items"`
}

func (h *RentalsHandler) quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	start, end, err := parseRange(req.RentalStart, req.RentalEnd)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Service.ComputePrice(ctx, req.Items, start, end, deliveryType(req.DeliveryType))
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.QuotesComputed.Inc()
	}
	// amounts leave the core rounded to 2 decimals
	writeJSON(w, http.StatusOK, res.Rounded())
}

func (h *RentalsHandler) stockReport(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if s := r.URL.Query().Get("date"); s != "" {
		var err error
		if date, err = time.Parse(dateLayout, s); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
			return
		}
	}
	threshold := 0
	if s := r.URL.Query().Get("threshold"); s != "" {
		threshold, _ = strconv.Atoi(s)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report, err := h.Service.StockReport(ctx, date, threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *RentalsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Service.Store.ListProducts(ctx, true)
	if err != nil {
		writeError(w, err)
		return
	}
	type productResp struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		WeeklyPrice string `json:"weekly_price"`
		TotalStock  int    `json:"total_stock"`
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, productResp{
			ID:          p.ID,
			Name:        p.Name,
			WeeklyPrice: p.WeeklyPrice.Round(2).String(),
			TotalStock:  p.TotalStock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RentalsHandler) cacheStatus(ctx context.Context, order rental.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
	body := kafkax.MustMarshal(map[string]any{
		"status": order.Status,
		"total":  order.TotalPrice.Round(2).String(),
	})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (h *RentalsHandler) publishCreated(r *http.Request, order rental.Order, items []rental.ItemInput) {
	if h.OrderProducer == nil {
		return
	}
	payload := rental.OrderCreatedPayload{
		OrderID:     order.ID,
		ExternalRef: order.ExternalRef,
		Customer:    order.CustomerName,
		RentalStart: order.RentalStart,
		RentalEnd:   order.RentalEnd,
		Items:       toItemQty(items),
		Total:       order.TotalPrice.Round(2).String(),
	}
	h.publish(h.OrderProducer, r, order.ID, rental.EventOrderCreated, payload)
}

func (h *RentalsHandler) publishStatus(r *http.Request, order rental.Order, from rental.Status) {
	if h.StatusProducer == nil {
		return
	}
	payload := rental.OrderStatusChangedPayload{OrderID: order.ID, From: from, To: order.Status}
	h.publish(h.StatusProducer, r, order.ID, rental.EventOrderStatusChanged, payload)
}

func (h *RentalsHandler) publishAmended(r *http.Request, order rental.Order, items []rental.ItemInput) {
	if h.StatusProducer == nil {
		return
	}
	payload := rental.OrderAmendedPayload{
		OrderID: order.ID,
		Items:   toItemQty(items),
		Total:   order.TotalPrice.Round(2).String(),
	}
	h.publish(h.StatusProducer, r, order.ID, rental.EventOrderAmended, payload)
}

func (h *RentalsHandler) publish(p *kafkax.Producer, r *http.Request, orderID, eventType string, payload any) {
	ev := rental.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Name,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(rental.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toItemQty(items []rental.ItemInput) []rental.ItemQty {
	out := make([]rental.ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, rental.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}

func deliveryType(s string) rental.DeliveryType {
	if rental.DeliveryType(s) == rental.DeliveryAirport {
		return rental.DeliveryAirport
	}
	return rental.DeliveryStandard
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid rental_start")
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid rental_end")
	}
	return s, e, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case rental.Validation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case rental.NotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case rental.InvalidState(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
