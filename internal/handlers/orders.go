package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/countdown"
	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/internal/outbox"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orders     *storage.OrderRepository
	contacts   *storage.ContactRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewOrderHandler(orders *storage.OrderRepository, contacts *storage.ContactRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		contacts:   contacts,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type orderPartRequest struct {
	PartID    string  `json:"part_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type createOrderRequest struct {
	SupplierContactID    string                `json:"supplier_contact_id"`
	CustomSupplier       *model.InlineSupplier `json:"custom_supplier"`
	Parts                []orderPartRequest    `json:"parts"`
	ExpectedDeliveryDate string                `json:"expected_delivery_date"`
	CustomTimeLimitHours int                   `json:"custom_time_limit_hours"`
	Notes                string                `json:"notes"`
}

type orderItem struct {
	OrderID              string            `json:"order_id"`
	OrderNumber          string            `json:"order_number"`
	Supplier             model.SupplierRef `json:"supplier"`
	Parts                []model.OrderPart `json:"parts"`
	TotalAmount          float64           `json:"total_amount"`
	Status               string            `json:"status"`
	OrderDate            string            `json:"order_date"`
	ExpectedDeliveryDate string            `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   string            `json:"actual_delivery_date,omitempty"`
	TimeLimitHours       int               `json:"time_limit_hours"`
	DeadlineAt           string            `json:"deadline_at,omitempty"`
	Countdown            *countdown.Status `json:"countdown,omitempty"`
	Notes                string            `json:"notes,omitempty"`
	CreatedAt            string            `json:"created_at"`
}

func orderToItem(o model.Order, now time.Time) orderItem {
	item := orderItem{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Supplier:       o.Supplier,
		Parts:          o.Parts,
		TotalAmount:    o.TotalAmount,
		Status:         string(o.Status),
		OrderDate:      o.OrderDate.UTC().Format(time.RFC3339),
		TimeLimitHours: o.CustomTimeLimitHours,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.ExpectedDeliveryDate != nil {
		item.ExpectedDeliveryDate = o.ExpectedDeliveryDate.UTC().Format(time.RFC3339)
	}
	if o.ActualDeliveryDate != nil {
		item.ActualDeliveryDate = o.ActualDeliveryDate.UTC().Format(time.RFC3339)
	}
	if o.CountdownEndTime != nil {
		item.DeadlineAt = o.CountdownEndTime.UTC().Format(time.RFC3339)
	}
	// Countdown classification is computed per read, never persisted. Delivered
	// and cancelled orders stop counting.
	if !o.Status.Terminal() {
		item.Countdown = countdown.StatusAt(o.CountdownEndTime, now)
	}
	return item
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	supplier := model.SupplierRef{
		ContactID: strings.TrimSpace(req.SupplierContactID),
		Inline:    req.CustomSupplier,
	}
	if supplier.Inline != nil {
		supplier.Inline.Name = strings.TrimSpace(supplier.Inline.Name)
	}
	if err := supplier.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if supplier.IsContact() {
		exists, err := h.contacts.Exists(ctx, supplier.ContactID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check supplier")
			return
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "supplier contact not found")
			return
		}
	}

	if len(req.Parts) == 0 {
		writeError(w, http.StatusBadRequest, "order requires at least one part")
		return
	}
	var parts []model.OrderPart
	var total float64
	for i, p := range req.Parts {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("parts[%d]: name required", i))
			return
		}
		if p.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("parts[%d]: quantity must be positive", i))
			return
		}
		if p.UnitPrice < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("parts[%d]: unit_price must not be negative", i))
			return
		}
		parts = append(parts, model.OrderPart{
			PartID:    strings.TrimSpace(p.PartID),
			Name:      name,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
		})
		total += float64(p.Quantity) * p.UnitPrice
	}

	hours := req.CustomTimeLimitHours
	if hours == 0 {
		hours = countdown.DefaultTimeLimitHours
	}
	if err := countdown.ValidateTimeLimit(hours); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var expectedDelivery *time.Time
	if raw := strings.TrimSpace(req.ExpectedDeliveryDate); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expected_delivery_date")
			return
		}
		expectedDelivery = &t
	}

	claims, ok := ClaimsFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderDate := time.Now().UTC()
	deadline := countdown.Deadline(orderDate, hours)
	order := &model.Order{
		OrderNumber:          newOrderNumber(orderDate),
		Supplier:             supplier,
		Parts:                parts,
		TotalAmount:          total,
		Status:               model.OrderPending,
		OrderDate:            orderDate,
		ExpectedDeliveryDate: expectedDelivery,
		CustomTimeLimitHours: hours,
		CountdownEndTime:     &deadline,
		Notes:                strings.TrimSpace(req.Notes),
		CreatedBy:            claims.Sub,
	}

	tx, err := h.orders.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.orders.Create(ctx, tx, order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}
	order.ID = id
	order.CreatedAt = orderDate

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusCreated, orderToItem(*order, time.Now().UTC()))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	writeJSON(w, http.StatusOK, orderToItem(o, time.Now().UTC()))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !model.OrderStatus(status).Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	limit, offset := pagination(r)

	orders, err := h.orders.List(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	h.writeOrderList(w, orders)
}

// Urgent lists active orders entering the final day of their countdown,
// soonest deadline first.
func (h *OrderHandler) Urgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	orders, err := h.orders.ListUrgent(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list urgent orders")
		return
	}
	h.writeOrderList(w, orders)
}

func (h *OrderHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	orders, err := h.orders.ListOverdue(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list overdue orders")
		return
	}
	h.writeOrderList(w, orders)
}

func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.OrderConfirmed, outbox.EventOrderConfirmed)
}

func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.OrderShipped, outbox.EventOrderShipped)
}

func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.OrderDelivered, outbox.EventOrderDelivered)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.OrderCancelled, outbox.EventOrderCancelled)
}

type orderTransitionRequest struct {
	OrderID string `json:"order_id"`
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, to model.OrderStatus, eventType string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req orderTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id required")
		return
	}

	ctx := r.Context()
	tx, err := h.orders.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := h.orders.GetForUpdate(ctx, tx, req.OrderID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if !model.CanTransitionOrder(o.Status, to) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot transition order from %s to %s", o.Status, to))
		return
	}

	var deliveredAt *time.Time
	if to == model.OrderDelivered {
		now := time.Now().UTC()
		deliveredAt = &now
	}
	if err := h.orders.UpdateStatus(ctx, tx, o.ID, to, deliveredAt); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"from_status":  string(o.Status),
		"to_status":    string(to),
		"changed_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "order",
		AggregateID:   o.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	o.Status = to
	o.ActualDeliveryDate = deliveredAt
	writeJSON(w, http.StatusOK, orderToItem(o, time.Now().UTC()))
}

type setTimeLimitRequest struct {
	OrderID        string `json:"order_id"`
	TimeLimitHours int    `json:"time_limit_hours"`
}

// SetTimeLimit rewrites an order's countdown limit. The deadline is re-derived
// from the original order date, not from when the edit happens.
func (h *OrderHandler) SetTimeLimit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req setTimeLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id required")
		return
	}
	if err := countdown.ValidateTimeLimit(req.TimeLimitHours); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	tx, err := h.orders.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := h.orders.GetForUpdate(ctx, tx, req.OrderID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o.Status.Terminal() {
		writeError(w, http.StatusConflict, "order is already closed")
		return
	}

	deadline := countdown.Deadline(o.OrderDate, req.TimeLimitHours)
	if err := h.orders.UpdateTimeLimit(ctx, tx, o.ID, req.TimeLimitHours, deadline); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update time limit")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	o.CustomTimeLimitHours = req.TimeLimitHours
	o.CountdownEndTime = &deadline
	writeJSON(w, http.StatusOK, orderToItem(o, time.Now().UTC()))
}

func (h *OrderHandler) writeOrderList(w http.ResponseWriter, orders []model.Order) {
	now := time.Now().UTC()
	items := make([]orderItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, orderToItem(o, now))
	}
	writeJSON(w, http.StatusOK, items)
}

func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return "ORD-" + t.Format("20060102") + "-" + suffix
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
