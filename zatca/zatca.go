// Package zatca turns a priced invoice into the two artifacts Saudi
// e-invoicing compliance requires: a UBL XML document and a base64 TLV QR
// payload, together with a validation report over both.
package zatca

import (
	"crypto/ecdsa"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-zatca-client/zatca/model"
	"github.com/alapierre/go-zatca-client/zatca/sign"
	"github.com/alapierre/go-zatca-client/zatca/tax"
	"github.com/alapierre/go-zatca-client/zatca/tlv"
	"github.com/alapierre/go-zatca-client/zatca/ubl"
)

var logger = logrus.WithField("component", "zatca")

// Config carries the jurisdiction defaults and the clock. An explicit
// struct instead of module-level constants, so multiple rates and frozen
// clocks can be tested in isolation.
type Config struct {
	VATRate     decimal.Decimal // default rate for allowance/charges without one
	Currency    string
	CountryCode string
	Clock       func() time.Time

	// SigningKey, when set, signs standard invoices that arrive without
	// signature artifacts. Simplified invoices are never signed.
	SigningKey *ecdsa.PrivateKey
}

func DefaultConfig() Config {
	return Config{
		VATRate:     decimal.NewFromInt(15),
		Currency:    "SAR",
		CountryCode: "SA",
		Clock:       time.Now,
	}
}

// Result bundles the generated artifacts. Both are returned even when the
// report carries errors, so callers can display diagnostics; only
// Validation.IsValid() marks them submission-ready.
type Result struct {
	XML        string
	QRPayload  string
	Validation model.ValidationReport
}

type Generator struct {
	cfg       Config
	calc      *tax.Calculator
	assembler *ubl.Assembler
}

func New(cfg Config) *Generator {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Generator{
		cfg:  cfg,
		calc: tax.New(tax.Config{DefaultVATRate: cfg.VATRate}),
		assembler: ubl.New(ubl.Config{
			Currency:    cfg.Currency,
			CountryCode: cfg.CountryCode,
		}),
	}
}

// Generate runs the full pipeline: tax totals, XML assembly, optional
// signing, TLV encoding and validation of both artifacts. It is pure given
// a frozen Clock. The only hard failures are an unserializable document and
// a TLV field overflow; business-rule problems land in the report instead.
func (g *Generator) Generate(inv *model.Invoice) (*Result, error) {
	work := *inv
	if work.IssuedAt.IsZero() {
		logger.Warn("invoice has no issue time, falling back to clock")
		work.IssuedAt = g.cfg.Clock()
	}

	totals := g.calc.Calculate(&work)

	xml, err := g.assembler.Assemble(&work, totals)
	if err != nil {
		return nil, err
	}

	if work.Type == model.Standard && work.Signature == nil && g.cfg.SigningKey != nil {
		signature, err := sign.Sign([]byte(xml), g.cfg.SigningKey)
		if err != nil {
			return nil, err
		}
		work.Signature = signature
	}

	res := &Result{XML: xml}
	res.Validation = ubl.Validate(xml)

	payload, err := tlv.Encode(&work, totals)
	if err != nil {
		// Overflow is unrepresentable on the wire, not a report entry.
		return res, err
	}
	res.QRPayload = payload

	// Round-trip the payload as a self-check before validating the fields.
	fields, err := tlv.Decode(payload)
	if err != nil {
		return res, err
	}
	res.Validation.Merge(tlv.Validate(fields))

	return res, nil
}
