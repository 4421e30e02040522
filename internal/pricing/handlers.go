package pricing

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/vat"
)

// Handler exposes the sale computation endpoints.
type Handler struct {
	service  *Service
	currency string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Currency string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "EUR"
	}
	return &Handler{service: cfg.Service, currency: currency}
}

type rateDTO struct {
	Code        string          `json:"code" validate:"omitempty,max=16"`
	Description string          `json:"description" validate:"omitempty,max=255"`
	Percentage  decimal.Decimal `json:"percentage" validate:"gte=0,lte=100"`
	Nature      string          `json:"nature" validate:"omitempty,max=8"`
}

type componentDTO struct {
	SubtotalCents int64      `json:"subtotalCents" validate:"gte=0,lte=1000000000000"`
	VATRateID     *uuid.UUID `json:"vatRateId"`
	VAT           *rateDTO   `json:"vat"`
}

type lineDTO struct {
	Kind                  string           `json:"kind" validate:"omitempty,oneof=simple bundle"`
	UnitPriceCents        int64            `json:"unitPriceCents" validate:"gte=0,lte=1000000000000"`
	Quantity              int              `json:"quantity" validate:"gte=1,lte=1000000"`
	PercentageDiscount    *decimal.Decimal `json:"percentageDiscount" validate:"omitempty,gte=0,lte=100"`
	AbsoluteDiscountCents *int64           `json:"absoluteDiscountCents" validate:"omitempty,gte=0,lte=1000000000000"`
	VATRateID             *uuid.UUID       `json:"vatRateId"`
	VAT                   *rateDTO         `json:"vat"`
	Breakdown             []componentDTO   `json:"breakdown" validate:"dive"`
}

type saleRequest struct {
	IncludeTaxes              bool             `json:"includeTaxes"`
	SalePercentageDiscount    *decimal.Decimal `json:"salePercentageDiscount" validate:"omitempty,gte=0,lte=100"`
	SaleAbsoluteDiscountCents *int64           `json:"saleAbsoluteDiscountCents" validate:"omitempty,gte=0,lte=1000000000000"`
	Lines                     []lineDTO        `json:"lines" validate:"max=500,dive"`
}

func (r saleRequest) input() SaleInput {
	in := SaleInput{
		IncludeTaxes:              r.IncludeTaxes,
		SalePercentageDiscount:    r.SalePercentageDiscount,
		SaleAbsoluteDiscountCents: r.SaleAbsoluteDiscountCents,
		Lines:                     make([]LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		li := LineInput{
			Kind:                  LineKind(l.Kind),
			UnitPriceCents:        l.UnitPriceCents,
			Quantity:              l.Quantity,
			PercentageDiscount:    l.PercentageDiscount,
			AbsoluteDiscountCents: l.AbsoluteDiscountCents,
			Rate:                  rateRef(l.VATRateID, l.VAT),
		}
		for _, c := range l.Breakdown {
			li.Breakdown = append(li.Breakdown, ComponentInput{SubtotalCents: c.SubtotalCents, Rate: rateRef(c.VATRateID, c.VAT)})
		}
		in.Lines[i] = li
	}
	return in
}

func rateRef(id *uuid.UUID, inline *rateDTO) RateRef {
	ref := RateRef{ID: id}
	if inline != nil {
		ref.Inline = &vat.Rate{
			Code:        strings.TrimSpace(inline.Code),
			Description: strings.TrimSpace(inline.Description),
			Percentage:  inline.Percentage,
			Nature:      strings.ToUpper(strings.TrimSpace(inline.Nature)),
		}
	}
	return ref
}

type amount struct {
	Cents int64  `json:"cents"`
	Value string `json:"value"`
}

func newAmount(c money.Cents) amount {
	return amount{Cents: c, Value: money.ToMajor(c).StringFixed(2)}
}

type aggregateDTO struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Percentage  string `json:"percentage"`
	Nature      string `json:"nature,omitempty"`
	Taxable     amount `json:"taxable"`
	Tax         amount `json:"tax"`
	Gross       amount `json:"gross"`
}

type totalsDTO struct {
	Currency         string         `json:"currency"`
	Subtotal         amount         `json:"subtotal"`
	TaxTotal         amount         `json:"taxTotal"`
	StampDutyApplied bool           `json:"stampDutyApplied"`
	StampDuty        amount         `json:"stampDuty"`
	Total            amount         `json:"total"`
	VATBreakdown     []aggregateDTO `json:"vatBreakdown"`
}

type componentResultDTO struct {
	VATCode      string `json:"vatCode"`
	Net          amount `json:"net"`
	Gross        amount `json:"gross"`
	VAT          amount `json:"vat"`
	LineDiscount amount `json:"lineDiscount"`
	SaleDiscount amount `json:"saleDiscount"`
}

type lineResultDTO struct {
	Index        int                  `json:"index"`
	UnitNet      amount               `json:"unitNet"`
	UnitGross    amount               `json:"unitGross"`
	TotalNet     amount               `json:"totalNet"`
	TotalGross   amount               `json:"totalGross"`
	VAT          amount               `json:"vat"`
	LineDiscount amount               `json:"lineDiscount"`
	SaleDiscount amount               `json:"saleDiscount"`
	Components   []componentResultDTO `json:"components"`
}

type rowsDTO struct {
	Lines  []lineResultDTO `json:"lines"`
	Totals totalsDTO       `json:"totals"`
}

func (h *Handler) totals(res Result) totalsDTO {
	out := totalsDTO{
		Currency:         h.currency,
		Subtotal:         newAmount(res.SubtotalCents),
		TaxTotal:         newAmount(res.TaxTotalCents),
		StampDutyApplied: res.StampDutyApplied,
		StampDuty:        newAmount(res.StampDutyAmountCents),
		Total:            newAmount(res.TotalCents),
		VATBreakdown:     make([]aggregateDTO, 0, len(res.VATBreakdown)),
	}
	for _, a := range res.VATBreakdown {
		out.VATBreakdown = append(out.VATBreakdown, aggregateDTO{
			Code:        a.Code,
			Description: a.Description,
			Percentage:  a.Percentage.String(),
			Nature:      a.Nature,
			Taxable:     newAmount(a.TaxableCents),
			Tax:         newAmount(a.TaxCents),
			Gross:       newAmount(a.GrossCents()),
		})
	}
	return out
}

func lineResult(l LineResult) lineResultDTO {
	out := lineResultDTO{
		Index:        l.Index,
		UnitNet:      newAmount(l.UnitNetCents),
		UnitGross:    newAmount(l.UnitGrossCents),
		TotalNet:     newAmount(l.TotalNetCents),
		TotalGross:   newAmount(l.TotalGrossCents),
		VAT:          newAmount(l.VATCents),
		LineDiscount: newAmount(l.LineDiscountCents),
		SaleDiscount: newAmount(l.SaleDiscountCents),
		Components:   make([]componentResultDTO, 0, len(l.Components)),
	}
	for _, c := range l.Components {
		out.Components = append(out.Components, componentResultDTO{
			VATCode:      c.Rate.Code,
			Net:          newAmount(c.NetCents),
			Gross:        newAmount(c.GrossCents),
			VAT:          newAmount(c.VATCents),
			LineDiscount: newAmount(c.LineDiscountCents),
			SaleDiscount: newAmount(c.SaleDiscountCents),
		})
	}
	return out
}

// QuickCalculate handles POST /api/v1/sales/quick-calculate.
func (h *Handler) QuickCalculate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing service not configured", nil)
		return
	}
	var req saleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.service.QuickCalculate(r.Context(), req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totals(res))
}

// Rows handles POST /api/v1/sales/rows.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing service not configured", nil)
		return
	}
	var req saleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.service.ComputeRows(r.Context(), req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := rowsDTO{Lines: make([]lineResultDTO, 0, len(res.Lines)), Totals: h.totals(res.Result)}
	for _, l := range res.Lines {
		out.Lines = append(out.Lines, lineResult(l))
	}
	common.Data(w, http.StatusOK, out)
}
