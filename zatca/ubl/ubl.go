// Package ubl renders the invoice as a UBL 2.1 XML document in the shape
// ZATCA expects: fixed element order, one TaxSubtotal per VAT rate bucket
// and two-decimal amounts with explicit currency attributes.
package ubl

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/alapierre/go-zatca-client/zatca/format"
	"github.com/alapierre/go-zatca-client/zatca/model"
	"github.com/alapierre/go-zatca-client/zatca/tax"
)

const (
	NamespaceInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	// ProfileID marks the document as a ZATCA reporting invoice.
	ProfileID = "reporting:1.0"
)

// Config carries the document-wide defaults. CountryCode applies to both
// parties' addresses; ZATCA fixes it to SA.
type Config struct {
	Currency    string
	CountryCode string
}

type Assembler struct {
	cfg Config
}

func New(cfg Config) *Assembler {
	if cfg.Currency == "" {
		cfg.Currency = "SAR"
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "SA"
	}
	return &Assembler{cfg: cfg}
}

// Assemble builds the full invoice document. Totals must come from the tax
// calculator run over the same invoice, so the per-line derived amounts are
// populated. Free text is entity-escaped exactly once, by the serializer.
func (a *Assembler) Assemble(inv *model.Invoice, totals tax.Totals) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NamespaceInvoice)
	root.CreateAttr("xmlns:cac", NamespaceCAC)
	root.CreateAttr("xmlns:cbc", NamespaceCBC)

	text(root, "cbc:ProfileID", ProfileID)
	text(root, "cbc:ID", inv.ID)
	if inv.UUID != "" {
		text(root, "cbc:UUID", inv.UUID)
	}
	text(root, "cbc:IssueDate", format.DateISO(inv.IssuedAt))
	text(root, "cbc:IssueTime", format.TimeISO(inv.IssuedAt))

	typeCode := text(root, "cbc:InvoiceTypeCode", inv.Type.TypeCode())
	typeCode.CreateAttr("name", inv.Type.TypeCodeName())

	if inv.Note != "" {
		text(root, "cbc:Note", inv.Note)
	}
	text(root, "cbc:DocumentCurrencyCode", a.cfg.Currency)
	text(root, "cbc:TaxCurrencyCode", a.cfg.Currency)

	if inv.BillingReference != "" {
		ref := root.CreateElement("cac:BillingReference")
		docRef := ref.CreateElement("cac:InvoiceDocumentReference")
		text(docRef, "cbc:ID", inv.BillingReference)
	}

	a.party(root, "cac:AccountingSupplierParty", inv.Supplier, true)
	a.party(root, "cac:AccountingCustomerParty", inv.Customer, false)

	delivery := root.CreateElement("cac:Delivery")
	text(delivery, "cbc:ActualDeliveryDate", format.DateISO(inv.IssuedAt))

	means := root.CreateElement("cac:PaymentMeans")
	text(means, "cbc:PaymentMeansCode", "10")

	for _, ac := range inv.AllowanceCharges {
		a.allowanceCharge(root, ac)
	}

	taxTotal := root.CreateElement("cac:TaxTotal")
	a.amount(taxTotal, "cbc:TaxAmount", totals.VAT)
	for _, bucket := range totals.Buckets {
		sub := taxTotal.CreateElement("cac:TaxSubtotal")
		a.amount(sub, "cbc:TaxableAmount", bucket.Taxable)
		a.amount(sub, "cbc:TaxAmount", bucket.VAT)
		a.taxCategory(sub, bucket.Rate)
	}

	monetary := root.CreateElement("cac:LegalMonetaryTotal")
	a.amount(monetary, "cbc:LineExtensionAmount", totals.LineExtension)
	a.amount(monetary, "cbc:TaxExclusiveAmount", totals.Taxable)
	a.amount(monetary, "cbc:TaxInclusiveAmount", totals.GrandTotal)
	if totals.Allowance.IsPositive() {
		a.amount(monetary, "cbc:AllowanceTotalAmount", totals.Allowance)
	}
	if totals.Charge.IsPositive() {
		a.amount(monetary, "cbc:ChargeTotalAmount", totals.Charge)
	}
	a.amount(monetary, "cbc:PayableAmount", totals.GrandTotal)

	for i, line := range inv.Lines {
		a.invoiceLine(root, i+1, line)
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize invoice %s: %w", inv.ID, err)
	}
	return out, nil
}

func (a *Assembler) party(root *etree.Element, name string, p model.Party, supplier bool) {
	wrapper := root.CreateElement(name)
	party := wrapper.CreateElement("cac:Party")

	if supplier && p.CRNumber != "" {
		id := party.CreateElement("cac:PartyIdentification")
		crn := text(id, "cbc:ID", format.Digits(p.CRNumber))
		crn.CreateAttr("schemeID", "CRN")
	}

	address := party.CreateElement("cac:PostalAddress")
	if p.Street != "" {
		text(address, "cbc:StreetName", p.Street)
	}
	if p.Building != "" {
		text(address, "cbc:BuildingNumber", p.Building)
	}
	if p.District != "" {
		text(address, "cbc:CitySubdivisionName", p.District)
	}
	if p.City != "" {
		text(address, "cbc:CityName", p.City)
	}
	if p.PostalCode != "" {
		text(address, "cbc:PostalZone", p.PostalCode)
	}
	country := address.CreateElement("cac:Country")
	code := p.CountryCode
	if code == "" {
		code = a.cfg.CountryCode
	}
	text(country, "cbc:IdentificationCode", code)

	if p.VATNumber != "" {
		scheme := party.CreateElement("cac:PartyTaxScheme")
		text(scheme, "cbc:CompanyID", format.Digits(p.VATNumber))
		taxScheme := scheme.CreateElement("cac:TaxScheme")
		text(taxScheme, "cbc:ID", "VAT")
	}

	legal := party.CreateElement("cac:PartyLegalEntity")
	text(legal, "cbc:RegistrationName", p.Name)

	if p.Phone != "" || p.Email != "" {
		contact := party.CreateElement("cac:Contact")
		if p.Phone != "" {
			text(contact, "cbc:Telephone", p.Phone)
		}
		if p.Email != "" {
			text(contact, "cbc:ElectronicMail", p.Email)
		}
	}
}

func (a *Assembler) allowanceCharge(root *etree.Element, ac model.AllowanceCharge) {
	el := root.CreateElement("cac:AllowanceCharge")
	text(el, "cbc:ChargeIndicator", strconv.FormatBool(ac.Charge))
	if ac.Reason != "" {
		text(el, "cbc:AllowanceChargeReason", ac.Reason)
	}
	a.amount(el, "cbc:Amount", ac.Amount)
	a.taxCategory(el, ac.VATRate)
}

func (a *Assembler) invoiceLine(root *etree.Element, id int, line model.InvoiceLine) {
	el := root.CreateElement("cac:InvoiceLine")
	text(el, "cbc:ID", strconv.Itoa(id))

	qty := text(el, "cbc:InvoicedQuantity", line.Quantity.String())
	unit := line.UnitCode
	if unit == "" {
		unit = "PCE"
	}
	qty.CreateAttr("unitCode", unit)

	a.amount(el, "cbc:LineExtensionAmount", line.LineExtension)

	lineTax := el.CreateElement("cac:TaxTotal")
	a.amount(lineTax, "cbc:TaxAmount", line.VATAmount)
	a.amount(lineTax, "cbc:RoundingAmount", line.LineExtension.Add(line.VATAmount))

	item := el.CreateElement("cac:Item")
	text(item, "cbc:Name", line.Description)

	price := el.CreateElement("cac:Price")
	a.amount(price, "cbc:PriceAmount", line.UnitPrice)
}

func (a *Assembler) taxCategory(parent *etree.Element, rate decimal.Decimal) {
	category := parent.CreateElement("cac:TaxCategory")
	id := "S"
	if rate.IsZero() {
		id = "Z"
	}
	text(category, "cbc:ID", id)
	text(category, "cbc:Percent", format.Amount(rate))
	scheme := category.CreateElement("cac:TaxScheme")
	text(scheme, "cbc:ID", "VAT")
}

func (a *Assembler) amount(parent *etree.Element, name string, d decimal.Decimal) {
	el := text(parent, name, format.Amount(d))
	el.CreateAttr("currencyID", a.cfg.Currency)
}

func text(parent *etree.Element, name, value string) *etree.Element {
	el := parent.CreateElement(name)
	el.SetText(value)
	return el
}
