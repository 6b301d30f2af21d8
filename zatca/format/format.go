// Package format groups the locale-aware display formatting, identifier
// validation and XML escaping rules shared by the TLV and UBL encoders.
//
// Formatting never fails on bad input: unrepresentable numbers format as
// zero and unparsable dates fall back to the supplied reference time. Each
// permissive path returns a degraded flag and logs a warning so callers can
// tell a genuine zero from a fallback.
package format

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "zatca.format")

// Locale is the closed set of supported display locales.
type Locale int

const (
	EN Locale = iota
	AR
)

// sarGlyph is the Saudi Riyal currency sign used instead of the ISO code
// in Arabic rendering.
const sarGlyph = "﷼"

var digitsRe = regexp.MustCompile(`\D+`)

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	return digitsRe.ReplaceAllString(s, "")
}

// IsValidVATNumber reports whether s contains exactly 15 digits once
// formatting characters are removed (Saudi VAT registration number).
func IsValidVATNumber(s string) bool {
	return len(Digits(s)) == 15
}

// IsValidCRNumber reports whether s contains exactly 10 digits once
// formatting characters are removed (commercial registration number).
func IsValidCRNumber(s string) bool {
	return len(Digits(s)) == 10
}

// Amount renders a monetary value the way both wire formats expect it:
// exactly two fractional digits, half-up rounding, no grouping.
func Amount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// AmountFromFloat converts a float to a monetary decimal. NaN and infinities
// degrade to zero instead of failing; the second return value reports that
// fallback.
func AmountFromFloat(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		logger.Warnf("non-finite amount %v, formatting as zero", v)
		return decimal.Zero, true
	}
	return decimal.NewFromFloat(v).Round(2), false
}

// Currency renders an amount with its currency marker. The Arabic locale
// uses the Riyal glyph for SAR and places the marker after the amount.
func Currency(d decimal.Decimal, currencyCode string, locale Locale) string {
	amount := Amount(d)
	switch locale {
	case AR:
		marker := currencyCode
		if currencyCode == "SAR" {
			marker = sarGlyph
		}
		return amount + " " + marker
	case EN:
		return currencyCode + " " + amount
	}
	return currencyCode + " " + amount
}

// Number renders a plain number with the two-decimal convention.
func Number(d decimal.Decimal, locale Locale) string {
	switch locale {
	case AR, EN:
		return Amount(d)
	}
	return Amount(d)
}

// Percentage renders a percent value, e.g. 15 -> "15.00%". The Arabic
// locale uses the Arabic percent sign.
func Percentage(d decimal.Decimal, locale Locale) string {
	switch locale {
	case AR:
		return Amount(d) + "٪"
	case EN:
		return Amount(d) + "%"
	}
	return Amount(d) + "%"
}

// DateISO renders t as YYYY-MM-DD.
func DateISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// TimeISO renders the time-of-day portion as HH:MM:SS.
func TimeISO(t time.Time) string {
	return t.Format("15:04:05")
}

// DateTimeISO renders t as an ISO-8601 timestamp with numeric zone offset.
func DateTimeISO(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime parses s against the accepted ISO layouts. An unparsable
// input falls back to now; the second return value reports that fallback.
func ParseDateTime(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false
		}
	}
	logger.Warnf("unparsable timestamp %q, falling back to reference time", s)
	return now, true
}

// IsISOTimestamp reports whether s parses under one of the accepted ISO
// layouts.
func IsISOTimestamp(s string) bool {
	_, degraded := ParseDateTime(s, time.Time{})
	return !degraded
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML replaces the five XML-significant characters with their entity
// references. It is not idempotent: already-escaped input gets escaped
// again, so callers must escape raw text exactly once.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// Breakdown is the result of a single-rate VAT computation.
type Breakdown struct {
	Subtotal    decimal.Decimal
	VATAmount   decimal.Decimal
	TotalAmount decimal.Decimal
	VATRate     decimal.Decimal
}

// VATBreakdown computes VAT over a subtotal at the given percent rate, all
// fields rounded to two decimals. A negative subtotal degrades to an
// all-zero breakdown rather than an error.
func VATBreakdown(subtotal, vatRate decimal.Decimal) Breakdown {
	if subtotal.IsNegative() {
		logger.Warnf("negative subtotal %s, returning zero breakdown", subtotal)
		return Breakdown{VATRate: vatRate}
	}
	sub := subtotal.Round(2)
	vat := sub.Mul(vatRate).Div(decimal.NewFromInt(100)).Round(2)
	return Breakdown{
		Subtotal:    sub,
		VATAmount:   vat,
		TotalAmount: sub.Add(vat).Round(2),
		VATRate:     vatRate,
	}
}
