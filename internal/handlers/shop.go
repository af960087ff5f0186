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

// ShopHandler serves the shop's own profile: name, address, contact and
// business details, and frontend settings. One row, read by everyone,
// written by admins.
type ShopHandler struct {
	shop   *storage.ShopRepository
	logger *slog.Logger
}

func NewShopHandler(shop *storage.ShopRepository, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{shop: shop, logger: logger}
}

type shopAddress struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country"`
	FullAddress string `json:"full_address"`
}

type shopInfoResponse struct {
	Name         string          `json:"name"`
	Address      shopAddress     `json:"address"`
	ContactInfo  json.RawMessage `json:"contact_info"`
	BusinessInfo json.RawMessage `json:"business_info"`
	Settings     json.RawMessage `json:"settings"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

func shopToResponse(s model.ShopInfo) shopInfoResponse {
	return shopInfoResponse{
		Name: s.Name,
		Address: shopAddress{
			Street:      s.Street,
			City:        s.City,
			State:       s.State,
			ZipCode:     s.ZipCode,
			Country:     s.Country,
			FullAddress: s.FullAddress(),
		},
		ContactInfo:  s.ContactInfo,
		BusinessInfo: s.BusinessInfo,
		Settings:     s.Settings,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ShopHandler) Info(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ShopHandler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.shop.Get(r.Context())
	if err != nil {
		h.logger.Error("shop info load failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load shop info")
		return
	}
	writeJSON(w, http.StatusOK, shopToResponse(s))
}

// All fields optional; absent fields keep their current values.
type updateShopRequest struct {
	Name         *string         `json:"name"`
	Street       *string         `json:"street"`
	City         *string         `json:"city"`
	State        *string         `json:"state"`
	ZipCode      *string         `json:"zip_code"`
	Country      *string         `json:"country"`
	ContactInfo  json.RawMessage `json:"contact_info"`
	BusinessInfo json.RawMessage `json:"business_info"`
	Settings     json.RawMessage `json:"settings"`
}

func isJSONObject(raw json.RawMessage) bool {
	var m map[string]any
	return json.Unmarshal(raw, &m) == nil
}

func (h *ShopHandler) update(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.Role != model.RoleAdmin {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}

	var req updateShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	for field, raw := range map[string]json.RawMessage{
		"contact_info":  req.ContactInfo,
		"business_info": req.BusinessInfo,
		"settings":      req.Settings,
	} {
		if len(raw) > 0 && !isJSONObject(raw) {
			writeError(w, http.StatusBadRequest, field+" must be a json object")
			return
		}
	}

	s, err := h.shop.Get(r.Context())
	if err != nil {
		h.logger.Error("shop info load failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load shop info")
		return
	}

	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if req.Street != nil {
		s.Street = strings.TrimSpace(*req.Street)
	}
	if req.City != nil {
		s.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		s.State = strings.TrimSpace(*req.State)
	}
	if req.ZipCode != nil {
		s.ZipCode = strings.TrimSpace(*req.ZipCode)
	}
	if req.Country != nil {
		s.Country = strings.TrimSpace(*req.Country)
	}
	if len(req.ContactInfo) > 0 {
		s.ContactInfo = req.ContactInfo
	}
	if len(req.BusinessInfo) > 0 {
		s.BusinessInfo = req.BusinessInfo
	}
	if len(req.Settings) > 0 {
		s.Settings = req.Settings
	}

	if err := h.shop.Update(r.Context(), s); err != nil {
		h.logger.Error("shop info update failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update shop info")
		return
	}
	writeJSON(w, http.StatusOK, shopToResponse(s))
}
