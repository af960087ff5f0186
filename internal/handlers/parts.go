package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
)

type PartHandler struct {
	parts    *storage.PartRepository
	contacts *storage.ContactRepository
	logger   *slog.Logger
}

func NewPartHandler(parts *storage.PartRepository, contacts *storage.ContactRepository, logger *slog.Logger) *PartHandler {
	return &PartHandler{parts: parts, contacts: contacts, logger: logger}
}

type partRequest struct {
	PartID            string  `json:"part_id,omitempty"`
	PartNumber        string  `json:"part_number"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	Brand             string  `json:"brand"`
	Price             float64 `json:"price"`
	Cost              float64 `json:"cost"`
	QuantityInStock   int     `json:"quantity_in_stock"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	SupplierContactID string  `json:"supplier_contact_id"`
	Warehouse         string  `json:"warehouse"`
	Shelf             string  `json:"shelf"`
	Bin               string  `json:"bin"`
}

type partItem struct {
	PartID            string  `json:"part_id"`
	PartNumber        string  `json:"part_number"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Category          string  `json:"category"`
	Brand             string  `json:"brand"`
	Price             float64 `json:"price"`
	Cost              float64 `json:"cost"`
	QuantityInStock   int     `json:"quantity_in_stock"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	StockStatus       string  `json:"stock_status"`
	ProfitMargin      float64 `json:"profit_margin"`
	SupplierContactID string  `json:"supplier_contact_id,omitempty"`
	Warehouse         string  `json:"warehouse,omitempty"`
	Shelf             string  `json:"shelf,omitempty"`
	Bin               string  `json:"bin,omitempty"`
	LastRestocked     string  `json:"last_restocked,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func partToItem(p model.Part) partItem {
	item := partItem{
		PartID:            p.ID,
		PartNumber:        p.PartNumber,
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Brand:             p.Brand,
		Price:             p.Price,
		Cost:              p.Cost,
		QuantityInStock:   p.QuantityInStock,
		MinimumStockLevel: p.MinimumStockLevel,
		StockStatus:       string(p.StockStatus()),
		ProfitMargin:      p.ProfitMargin(),
		Warehouse:         p.Warehouse,
		Shelf:             p.Shelf,
		Bin:               p.Bin,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.SupplierContactID != nil {
		item.SupplierContactID = *p.SupplierContactID
	}
	if p.LastRestocked != nil {
		item.LastRestocked = p.LastRestocked.UTC().Format(time.RFC3339)
	}
	return item
}

func (h *PartHandler) validate(w http.ResponseWriter, r *http.Request, req *partRequest) (*model.Part, bool) {
	req.PartNumber = strings.ToUpper(strings.TrimSpace(req.PartNumber))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Brand = strings.TrimSpace(req.Brand)
	if req.PartNumber == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "part_number and name required")
		return nil, false
	}
	if req.Category == "" {
		req.Category = "other"
	}
	if !model.ValidPartCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return nil, false
	}
	if req.Price < 0 || req.Cost < 0 {
		writeError(w, http.StatusBadRequest, "price and cost must not be negative")
		return nil, false
	}
	if req.QuantityInStock < 0 || req.MinimumStockLevel < 0 {
		writeError(w, http.StatusBadRequest, "stock levels must not be negative")
		return nil, false
	}

	p := &model.Part{
		ID:                strings.TrimSpace(req.PartID),
		PartNumber:        req.PartNumber,
		Name:              req.Name,
		Description:       strings.TrimSpace(req.Description),
		Category:          req.Category,
		Brand:             req.Brand,
		Price:             req.Price,
		Cost:              req.Cost,
		QuantityInStock:   req.QuantityInStock,
		MinimumStockLevel: req.MinimumStockLevel,
		Warehouse:         strings.TrimSpace(req.Warehouse),
		Shelf:             strings.TrimSpace(req.Shelf),
		Bin:               strings.TrimSpace(req.Bin),
	}
	if sid := strings.TrimSpace(req.SupplierContactID); sid != "" {
		exists, err := h.contacts.Exists(r.Context(), sid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check supplier")
			return nil, false
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "supplier contact not found")
			return nil, false
		}
		p.SupplierContactID = &sid
	}
	return p, true
}

func (h *PartHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req partRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	p, ok := h.validate(w, r, &req)
	if !ok {
		return
	}

	id, err := h.parts.Create(r.Context(), p)
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "part_number already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create part")
		return
	}

	created, err := h.parts.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load part")
		return
	}
	writeJSON(w, http.StatusCreated, partToItem(created))
}

func (h *PartHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req partRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	p, ok := h.validate(w, r, &req)
	if !ok {
		return
	}
	if p.ID == "" {
		writeError(w, http.StatusBadRequest, "part_id required")
		return
	}

	if _, err := h.parts.Get(r.Context(), p.ID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load part")
		return
	}
	if err := h.parts.Update(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update part")
		return
	}

	updated, err := h.parts.Get(r.Context(), p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load part")
		return
	}
	writeJSON(w, http.StatusOK, partToItem(updated))
}

func (h *PartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	p, err := h.parts.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load part")
		return
	}
	writeJSON(w, http.StatusOK, partToItem(p))
}

func (h *PartHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	search := strings.TrimSpace(q.Get("search"))
	category := strings.TrimSpace(q.Get("category"))
	if category != "" && !model.ValidPartCategory(category) {
		writeError(w, http.StatusBadRequest, "invalid category filter")
		return
	}
	limit, offset := pagination(r)

	parts, err := h.parts.List(r.Context(), search, category, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list parts")
		return
	}
	h.writePartList(w, parts)
}

func (h *PartHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	parts, err := h.parts.LowStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list low stock parts")
		return
	}
	h.writePartList(w, parts)
}

type restockRequest struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

func (h *PartHandler) Restock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.PartID = strings.TrimSpace(req.PartID)
	if req.PartID == "" {
		writeError(w, http.StatusBadRequest, "part_id required")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	p, err := h.parts.Restock(r.Context(), req.PartID, req.Quantity)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to restock part")
		return
	}
	writeJSON(w, http.StatusOK, partToItem(p))
}

type deactivateRequest struct {
	ID string `json:"id"`
}

func (h *PartHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req deactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	if err := h.parts.Deactivate(r.Context(), req.ID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate part")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": req.ID, "status": "deactivated"})
}

func (h *PartHandler) writePartList(w http.ResponseWriter, parts []model.Part) {
	items := make([]partItem, 0, len(parts))
	for _, p := range parts {
		items = append(items, partToItem(p))
	}
	writeJSON(w, http.StatusOK, items)
}
