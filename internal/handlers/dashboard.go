package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/storage"
)

type DashboardHandler struct {
	orders   *storage.OrderRepository
	appts    *storage.AppointmentRepository
	parts    *storage.PartRepository
	contacts *storage.ContactRepository
	logger   *slog.Logger
}

func NewDashboardHandler(orders *storage.OrderRepository, appts *storage.AppointmentRepository, parts *storage.PartRepository, contacts *storage.ContactRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		orders:   orders,
		appts:    appts,
		parts:    parts,
		contacts: contacts,
		logger:   logger,
	}
}

type dashboardStats struct {
	TotalOrders        int `json:"total_orders"`
	UrgentOrders       int `json:"urgent_orders"`
	OverdueOrders      int `json:"overdue_orders"`
	ActiveAppointments int `json:"active_appointments"`
	ActiveContacts     int `json:"active_contacts"`
	ActiveParts        int `json:"active_parts"`
	OutOfStockParts    int `json:"out_of_stock_parts"`
	LowStockParts      int `json:"low_stock_parts"`
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	var stats dashboardStats
	var err error

	if stats.TotalOrders, err = h.orders.Count(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	urgent, err := h.orders.ListUrgent(ctx, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	stats.UrgentOrders = len(urgent)
	overdue, err := h.orders.ListOverdue(ctx, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	stats.OverdueOrders = len(overdue)

	if stats.ActiveAppointments, err = h.appts.Count(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	if stats.ActiveContacts, err = h.contacts.CountActive(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	stock, err := h.parts.CountStock(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	stats.ActiveParts = stock.TotalActive
	stats.OutOfStockParts = stock.OutOfStock
	stats.LowStockParts = stock.LowStock

	writeJSON(w, http.StatusOK, stats)
}
