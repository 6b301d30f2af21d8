// Package tlv implements the ZATCA QR payload: a tag-length-value byte
// stream of up to nine tagged invoice fields, base64-encoded for embedding
// in a QR image.
//
// Each field is one tag byte, one length byte holding the UTF-8 byte length
// of the value, then the value bytes. Fields are concatenated in ascending
// tag order. The single length byte caps every field at 255 bytes; longer
// values are an encoding error, never a truncation.
package tlv

import (
	"encoding/base64"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alapierre/go-zatca-client/zatca/format"
	"github.com/alapierre/go-zatca-client/zatca/model"
	"github.com/alapierre/go-zatca-client/zatca/tax"
)

// Tag identifies one QR payload field.
type Tag byte

const (
	TagSellerName   Tag = 1
	TagVATNumber    Tag = 2
	TagTimestamp    Tag = 3
	TagInvoiceTotal Tag = 4
	TagVATTotal     Tag = 5
	TagXMLHash      Tag = 6
	TagSignature    Tag = 7
	TagPublicKey    Tag = 8
	TagStamp        Tag = 9
)

func (t Tag) String() string {
	switch t {
	case TagSellerName:
		return "seller name"
	case TagVATNumber:
		return "VAT number"
	case TagTimestamp:
		return "timestamp"
	case TagInvoiceTotal:
		return "invoice total"
	case TagVATTotal:
		return "VAT total"
	case TagXMLHash:
		return "XML hash"
	case TagSignature:
		return "signature"
	case TagPublicKey:
		return "public key"
	case TagStamp:
		return "stamp"
	}
	return fmt.Sprintf("tag %d", byte(t))
}

// Field is one tag/value pair. The length byte is derived at encode time.
type Field struct {
	Tag   Tag
	Value string
}

// OverflowError reports a field whose UTF-8 encoding does not fit the
// single length byte of the wire format.
type OverflowError struct {
	Tag    Tag
	Length int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("tlv: %s is %d bytes, limit is 255", e.Tag, e.Length)
}

// Fields assembles the field list for an invoice. Tags 1-5 are always
// present; tags 6-9 only when the invoice carries signature artifacts
// (standard invoices). Simplified invoices legitimately stop at tag 5.
func Fields(inv *model.Invoice, totals tax.Totals) []Field {
	fields := []Field{
		{TagSellerName, inv.Supplier.Name},
		{TagVATNumber, inv.Supplier.VATNumber},
		{TagTimestamp, format.DateTimeISO(inv.IssuedAt)},
		{TagInvoiceTotal, format.Amount(totals.GrandTotal)},
		{TagVATTotal, format.Amount(totals.VAT)},
	}
	if sig := inv.Signature; sig != nil {
		if sig.InvoiceHash != "" {
			fields = append(fields, Field{TagXMLHash, sig.InvoiceHash})
		}
		if sig.Signature != "" {
			fields = append(fields, Field{TagSignature, sig.Signature})
		}
		if sig.PublicKey != "" {
			fields = append(fields, Field{TagPublicKey, sig.PublicKey})
		}
		if sig.Stamp != "" {
			fields = append(fields, Field{TagStamp, sig.Stamp})
		}
	}
	return fields
}

// Encode renders the invoice's QR payload as base64.
func Encode(inv *model.Invoice, totals tax.Totals) (string, error) {
	return EncodeFields(Fields(inv, totals))
}

// EncodeFields packs the fields into the TLV byte stream and base64-encodes
// it. Fields must already be in ascending tag order, as Fields produces
// them.
func EncodeFields(fields []Field) (string, error) {
	var buf []byte
	for _, f := range fields {
		value := []byte(f.Value)
		if len(value) > 255 {
			return "", &OverflowError{Tag: f.Tag, Length: len(value)}
		}
		buf = append(buf, byte(f.Tag), byte(len(value)))
		buf = append(buf, value...)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decode walks the base64 payload back into its fields. It exists for
// round-trip self-verification, not for production input.
func Decode(payload string) ([]Field, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("tlv: decode base64: %w", err)
	}

	var fields []Field
	for pos := 0; pos < len(data); {
		if len(data)-pos < 2 {
			return nil, fmt.Errorf("tlv: truncated header at offset %d", pos)
		}
		tag := Tag(data[pos])
		length := int(data[pos+1])
		pos += 2
		if len(data)-pos < length {
			return nil, fmt.Errorf("tlv: %s declares %d bytes, %d remain", tag, length, len(data)-pos)
		}
		fields = append(fields, Field{Tag: tag, Value: string(data[pos : pos+length])})
		pos += length
	}
	return fields, nil
}

// impliedRateTolerance bounds how far the VAT percentage implied by the two
// totals may drift from the known rates before a warning is raised.
var impliedRateTolerance = decimal.NewFromFloat(0.5)

// Validate checks decoded QR fields against the mandatory-field and
// numeric-consistency rules. A malformed-but-present VAT number is a
// warning so simplified flows are not blocked; a missing one is an error.
func Validate(fields []Field) model.ValidationReport {
	byTag := map[Tag]string{}
	for _, f := range fields {
		byTag[f.Tag] = f.Value
	}

	var report model.ValidationReport

	if byTag[TagSellerName] == "" {
		report.Errorf("seller name is missing")
	}
	switch vat := byTag[TagVATNumber]; {
	case vat == "":
		report.Errorf("VAT registration number is missing")
	case !format.IsValidVATNumber(vat):
		report.Warnf("VAT registration number %q is not 15 digits", vat)
	}
	switch ts := byTag[TagTimestamp]; {
	case ts == "":
		report.Errorf("timestamp is missing")
	case !format.IsISOTimestamp(ts):
		report.Errorf("timestamp %q is not ISO-8601", ts)
	}

	total, totalOK := requireAmount(&report, byTag, TagInvoiceTotal)
	vatTotal, vatOK := requireAmount(&report, byTag, TagVATTotal)

	if totalOK && vatOK && total.GreaterThan(vatTotal) {
		net := total.Sub(vatTotal)
		implied := vatTotal.Div(net).Mul(decimal.NewFromInt(100))
		if !nearRate(implied, 0) && !nearRate(implied, 15) {
			report.Warnf("implied VAT rate %s%% is not close to 0%% or 15%%", implied.Round(2))
		}
	}
	return report
}

func requireAmount(report *model.ValidationReport, byTag map[Tag]string, tag Tag) (decimal.Decimal, bool) {
	raw, ok := byTag[tag]
	if !ok || raw == "" {
		report.Errorf("%s is missing", tag)
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		report.Errorf("%s %q is not numeric", tag, raw)
		return decimal.Zero, false
	}
	if d.IsNegative() {
		report.Errorf("%s %s is negative", tag, raw)
		return decimal.Zero, false
	}
	return d, true
}

func nearRate(implied decimal.Decimal, rate int64) bool {
	return implied.Sub(decimal.NewFromInt(rate)).Abs().LessThanOrEqual(impliedRateTolerance)
}
