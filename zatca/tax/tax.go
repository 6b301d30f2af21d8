// Package tax computes invoice VAT totals with one bucket per distinct
// rate, the way ZATCA expects tax subtotals to be reported.
package tax

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alapierre/go-zatca-client/zatca/model"
)

var hundred = decimal.NewFromInt(100)

// RateBucket aggregates every taxable amount sharing one VAT rate.
type RateBucket struct {
	Rate    decimal.Decimal
	Taxable decimal.Decimal
	VAT     decimal.Decimal
}

// Totals is the invoice-level result of a calculation. All monetary fields
// are rounded to two decimals (half-up).
type Totals struct {
	LineExtension decimal.Decimal // sum of per-line extension amounts
	Allowance     decimal.Decimal // document-level discounts
	Charge        decimal.Decimal // document-level fees
	Taxable       decimal.Decimal // LineExtension - Allowance + Charge
	VAT           decimal.Decimal // sum over buckets, each rounded first
	GrandTotal    decimal.Decimal // Taxable + VAT
	Buckets       []RateBucket    // ascending by rate
}

// Config carries the jurisdiction defaults so multiple rates can be tested
// in isolation instead of relying on package-level constants.
type Config struct {
	DefaultVATRate decimal.Decimal // applied to allowance/charges with no rate of their own
}

type Calculator struct {
	cfg Config
}

func New(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate derives the per-line extension and VAT amounts (written back
// into inv.Lines) and the invoice totals. VAT is bucketed by rate; each
// bucket is rounded independently before summing so a multi-rate invoice
// does not accumulate cross-rate rounding drift.
func (c *Calculator) Calculate(inv *model.Invoice) Totals {
	buckets := map[string]*RateBucket{}

	accumulate := func(rate, taxable decimal.Decimal) {
		key := rate.String()
		b, ok := buckets[key]
		if !ok {
			b = &RateBucket{Rate: rate}
			buckets[key] = b
		}
		b.Taxable = b.Taxable.Add(taxable)
	}

	var lineExtension decimal.Decimal
	for i := range inv.Lines {
		line := &inv.Lines[i]
		taxable := lineTaxable(line)
		line.LineExtension = taxable.Round(2)
		line.VATAmount = line.LineExtension.Mul(line.VATRate).Div(hundred).Round(2)
		lineExtension = lineExtension.Add(line.LineExtension)
		accumulate(line.VATRate, line.LineExtension)
	}

	var allowance, charge decimal.Decimal
	for _, ac := range inv.AllowanceCharges {
		rate := ac.VATRate
		if rate.IsZero() && !c.cfg.DefaultVATRate.IsZero() {
			rate = c.cfg.DefaultVATRate
		}
		amount := ac.Amount.Round(2)
		if ac.Charge {
			charge = charge.Add(amount)
			accumulate(rate, amount)
		} else {
			allowance = allowance.Add(amount)
			accumulate(rate, amount.Neg())
		}
	}

	t := Totals{
		LineExtension: lineExtension.Round(2),
		Allowance:     allowance,
		Charge:        charge,
	}
	t.Taxable = t.LineExtension.Sub(allowance).Add(charge).Round(2)

	for _, b := range buckets {
		b.Taxable = b.Taxable.Round(2)
		b.VAT = b.Taxable.Mul(b.Rate).Div(hundred).Round(2)
		t.VAT = t.VAT.Add(b.VAT)
		t.Buckets = append(t.Buckets, *b)
	}
	sort.Slice(t.Buckets, func(i, j int) bool {
		return t.Buckets[i].Rate.LessThan(t.Buckets[j].Rate)
	})

	t.VAT = t.VAT.Round(2)
	t.GrandTotal = t.Taxable.Add(t.VAT).Round(2)
	return t
}

// lineTaxable applies the line's own discount to quantity*unitPrice.
// Percentage discounts reduce multiplicatively, flat discounts subtract.
func lineTaxable(line *model.InvoiceLine) decimal.Decimal {
	subtotal := line.Quantity.Mul(line.UnitPrice)
	switch line.DiscountKind {
	case model.DiscountPercent:
		factor := decimal.NewFromInt(1).Sub(line.Discount.Div(hundred))
		return subtotal.Mul(factor)
	case model.DiscountAmount:
		return subtotal.Sub(line.Discount)
	}
	return subtotal
}
