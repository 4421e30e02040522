// Package schedule exposes installment plans and subscription expiration
// dates over HTTP.
package schedule

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/duration"
	"github.com/noah-isme/gym-billing/internal/installment"
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/obs"
)

const dateLayout = "2006-01-02"

// DefaultDaysBetween spaces installments when the caller does not choose.
const DefaultDaysBetween = 30

// Handler serves the schedule endpoints.
type Handler struct {
	currency string
	logger   zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(currency string, logger *zerolog.Logger) *Handler {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "schedule").Logger()
	}
	if currency == "" {
		currency = "EUR"
	}
	return &Handler{currency: currency, logger: l}
}

type installmentsRequest struct {
	TotalCents   int64  `json:"totalCents"`
	Count        int    `json:"count" validate:"gte=1,lte=120"`
	FirstDueDate string `json:"firstDueDate" validate:"required,datetime=2006-01-02"`
	DaysBetween  *int   `json:"daysBetween" validate:"omitempty,gte=1,lte=366"`
}

type installmentDTO struct {
	Number      int    `json:"number"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	DueDate     string `json:"dueDate"`
}

type expirationRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	Months    *int   `json:"months" validate:"omitempty,gte=0,lte=600"`
	Days      *int   `json:"days" validate:"omitempty,gte=0,lte=36600"`
}

// Installments handles POST /api/v1/installments.
func (h *Handler) Installments(w http.ResponseWriter, r *http.Request) {
	var req installmentsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		obs.ObserveInstallmentSchedule("invalid")
		common.WriteError(w, err)
		return
	}
	firstDue, _ := time.Parse(dateLayout, req.FirstDueDate)
	days := DefaultDaysBetween
	if req.DaysBetween != nil {
		days = *req.DaysBetween
	}

	items, err := installment.Schedule(req.TotalCents, req.Count, firstDue, days)
	if err != nil {
		obs.ObserveInstallmentSchedule("invalid")
		h.logger.Warn().Err(err).Int("count", req.Count).Msg("installment schedule rejected")
		common.WriteError(w, err)
		return
	}
	obs.ObserveInstallmentSchedule("ok")

	out := make([]installmentDTO, len(items))
	for i, it := range items {
		out[i] = installmentDTO{
			Number:      i + 1,
			AmountCents: it.AmountCents,
			Amount:      money.ToMajor(it.AmountCents).StringFixed(2),
			DueDate:     it.DueDate.Format(dateLayout),
		}
	}
	common.Data(w, http.StatusOK, map[string]any{
		"currency":     h.currency,
		"totalCents":   installment.Sum(items),
		"installments": out,
	})
}

// Expiration handles POST /api/v1/subscriptions/expiration.
func (h *Handler) Expiration(w http.ResponseWriter, r *http.Request) {
	var req expirationRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	expires := duration.ExpirationDate(start, req.Months, req.Days)
	common.Data(w, http.StatusOK, map[string]string{
		"startDate":      start.Format(dateLayout),
		"expirationDate": expires.Format(dateLayout),
	})
}
