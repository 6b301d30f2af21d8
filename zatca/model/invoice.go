package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes standard (B2B) tax invoices from simplified
// (B2C) ones. Standard invoices must carry Signature artifacts, simplified
// invoices must not.
type InvoiceType int

const (
	Standard InvoiceType = iota
	Simplified
)

func (t InvoiceType) String() string {
	switch t {
	case Standard:
		return "standard"
	case Simplified:
		return "simplified"
	}
	return "unknown"
}

// TypeCode returns the UBL invoice type code. ZATCA uses 388 (tax invoice)
// for both kinds; the subtype is carried in the name attribute.
func (t InvoiceType) TypeCode() string {
	return "388"
}

// TypeCodeName returns the ZATCA invoice subtype code placed in the
// InvoiceTypeCode name attribute: 0100000 for standard, 0200000 for
// simplified.
func (t InvoiceType) TypeCodeName() string {
	if t == Simplified {
		return "0200000"
	}
	return "0100000"
}

// Party is a supplier or customer. CRNumber is only meaningful for the
// supplier side.
type Party struct {
	Name        string
	VATNumber   string // 15 digits for Saudi VAT registration
	CRNumber    string // 10 digits, commercial registration, supplier only
	Street      string
	Building    string
	City        string
	District    string
	PostalCode  string
	CountryCode string // defaults to SA when empty
	Phone       string
	Email       string
}

// DiscountKind selects how InvoiceLine.Discount is applied.
type DiscountKind int

const (
	DiscountAmount  DiscountKind = iota // flat amount subtracted from the line
	DiscountPercent                     // percentage of quantity*unitPrice
)

// InvoiceLine is one priced invoice position. LineExtension and VATAmount
// are derived by tax.Calculator and overwritten on Calculate; values supplied
// by the caller are ignored.
type InvoiceLine struct {
	Description  string
	Quantity     decimal.Decimal
	UnitCode     string // UN/ECE rec 20, e.g. PCE
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal
	DiscountKind DiscountKind
	VATRate      decimal.Decimal // percent, 0 or 15 in practice

	LineExtension decimal.Decimal
	VATAmount     decimal.Decimal
}

// Signature holds the digital-signature artifacts required on standard
// invoices: base64 SHA-256 of the XML, base64 ASN.1 ECDSA signature,
// base64 DER public key and the optional authority stamp.
type Signature struct {
	InvoiceHash string
	Signature   string
	PublicKey   string
	Stamp       string
}

// AllowanceCharge is a document-level discount (Charge=false) or fee
// (Charge=true) with its own tax category.
type AllowanceCharge struct {
	Charge  bool
	Reason  string
	Amount  decimal.Decimal
	VATRate decimal.Decimal
}

// Invoice is the aggregate handed in by the caller: resolved parties,
// priced lines, nothing looked up here. The encoders never mutate it except
// for the derived per-line amounts filled in by the tax calculator.
type Invoice struct {
	ID       string
	UUID     string
	IssuedAt time.Time
	Type     InvoiceType
	Currency string // SAR in practice

	Supplier Party
	Customer Party

	// BillingReference is the preceding invoice ID for credit and debit
	// notes, empty otherwise.
	BillingReference string

	Lines            []InvoiceLine
	AllowanceCharges []AllowanceCharge

	Note      string
	Signature *Signature // required for Standard, nil for Simplified
}
