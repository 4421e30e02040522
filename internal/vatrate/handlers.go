package vatrate

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
)

// Handler exposes the VAT rate admin endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Code        string          `json:"code" validate:"required,max=16"`
	Description string          `json:"description" validate:"required,max=255"`
	Percentage  decimal.Decimal `json:"percentage"`
	Nature      string          `json:"nature" validate:"omitempty,max=8"`
}

// List handles GET /api/v1/vat-rates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "vat rate service not configured", nil)
		return
	}
	rates, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	page := common.ParsePagination(r, 50)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       common.Paginate(rates, &page),
		"pagination": page,
	})
}

// Create handles POST /api/v1/vat-rates.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "vat rate service not configured", nil)
		return
	}
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	rate, err := h.service.Create(r.Context(), Rate{
		Code:        req.Code,
		Description: req.Description,
		Percentage:  req.Percentage,
		Nature:      req.Nature,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, rate)
}
