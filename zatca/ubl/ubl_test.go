package ubl

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-zatca-client/zatca/model"
	"github.com/alapierre/go-zatca-client/zatca/tax"
)

func sampleInvoice() *model.Invoice {
	return &model.Invoice{
		ID:       "INV-42",
		UUID:     "8e5efe34-17f5-4e3f-9a4b-1c9a1f6f2a11",
		IssuedAt: time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC),
		Type:     model.Standard,
		Currency: "SAR",
		Supplier: model.Party{
			Name:      "Najd Trading Est.",
			VATNumber: "311111111101113",
			CRNumber:  "1010101010",
			Street:    "King Fahd Road",
			City:      "Riyadh",
		},
		Customer: model.Party{
			Name:      "Red Sea Logistics",
			VATNumber: "300000000000003",
			City:      "Jeddah",
		},
		Lines: []model.InvoiceLine{
			{Description: "Office chair", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(450), VATRate: decimal.NewFromInt(15)},
			{Description: "Desk", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), VATRate: decimal.NewFromInt(15)},
		},
		AllowanceCharges: []model.AllowanceCharge{
			{Charge: false, Reason: "Seasonal discount", Amount: decimal.NewFromInt(50), VATRate: decimal.NewFromInt(15)},
		},
	}
}

func assemble(t *testing.T, inv *model.Invoice) string {
	t.Helper()
	calc := tax.New(tax.Config{DefaultVATRate: decimal.NewFromInt(15)})
	totals := calc.Calculate(inv)
	out, err := New(Config{}).Assemble(inv, totals)
	require.NoError(t, err)
	return out
}

func TestAssemble_Structure(t *testing.T) {
	out := assemble(t, sampleInvoice())

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	root := doc.Root()
	require.NotNil(t, root)

	assert.Equal(t, NamespaceInvoice, root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, NamespaceCAC, root.SelectAttrValue("xmlns:cac", ""))
	assert.Equal(t, NamespaceCBC, root.SelectAttrValue("xmlns:cbc", ""))

	assert.Equal(t, ProfileID, root.SelectElement("cbc:ProfileID").Text())
	assert.Equal(t, "INV-42", root.SelectElement("cbc:ID").Text())
	assert.Equal(t, "2024-03-01", root.SelectElement("cbc:IssueDate").Text())
	assert.Equal(t, "388", root.SelectElement("cbc:InvoiceTypeCode").Text())
	assert.Equal(t, "0100000", root.SelectElement("cbc:InvoiceTypeCode").SelectAttrValue("name", ""))

	// One 15% bucket -> exactly one TaxSubtotal; two lines -> two elements.
	taxTotal := root.SelectElement("cac:TaxTotal")
	require.NotNil(t, taxTotal)
	assert.Len(t, taxTotal.SelectElements("cac:TaxSubtotal"), 1)
	assert.Len(t, root.SelectElements("cac:InvoiceLine"), 2)

	monetary := root.SelectElement("cac:LegalMonetaryTotal")
	require.NotNil(t, monetary)
	assert.Equal(t, "1000.00", monetary.SelectElement("cbc:LineExtensionAmount").Text())
	assert.Equal(t, "950.00", monetary.SelectElement("cbc:TaxExclusiveAmount").Text())
	assert.Equal(t, "1092.50", monetary.SelectElement("cbc:TaxInclusiveAmount").Text())
	assert.Equal(t, "50.00", monetary.SelectElement("cbc:AllowanceTotalAmount").Text())
	assert.Equal(t, "1092.50", monetary.SelectElement("cbc:PayableAmount").Text())
	assert.Equal(t, "SAR", monetary.SelectElement("cbc:PayableAmount").SelectAttrValue("currencyID", ""))
}

func TestAssemble_PartyBlocks(t *testing.T) {
	out := assemble(t, sampleInvoice())

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	root := doc.Root()

	supplier := root.SelectElement("cac:AccountingSupplierParty").SelectElement("cac:Party")
	require.NotNil(t, supplier)
	crn := supplier.SelectElement("cac:PartyIdentification").SelectElement("cbc:ID")
	assert.Equal(t, "1010101010", crn.Text())
	assert.Equal(t, "CRN", crn.SelectAttrValue("schemeID", ""))
	assert.Equal(t, "311111111101113",
		supplier.SelectElement("cac:PartyTaxScheme").SelectElement("cbc:CompanyID").Text())
	assert.Equal(t, "SA",
		supplier.SelectElement("cac:PostalAddress").SelectElement("cac:Country").SelectElement("cbc:IdentificationCode").Text())

	customer := root.SelectElement("cac:AccountingCustomerParty").SelectElement("cac:Party")
	require.NotNil(t, customer)
	assert.Nil(t, customer.SelectElement("cac:PartyIdentification"), "CRN is supplier-only")
	assert.Equal(t, "Red Sea Logistics",
		customer.SelectElement("cac:PartyLegalEntity").SelectElement("cbc:RegistrationName").Text())
}

func TestAssemble_EscapesFreeText(t *testing.T) {
	inv := sampleInvoice()
	inv.Supplier.Name = `Fish & Chips <Ltd> "Riyadh"`
	inv.Lines[0].Description = "Chair & stool"

	out := assemble(t, inv)

	assert.Contains(t, out, "Fish &amp; Chips &lt;Ltd&gt;")
	assert.Contains(t, out, "Chair &amp; stool")
	assert.NotContains(t, out, "Chips <Ltd>")

	// The escaped text survives a parse round-trip unchanged.
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	name := doc.Root().
		SelectElement("cac:AccountingSupplierParty").
		SelectElement("cac:Party").
		SelectElement("cac:PartyLegalEntity").
		SelectElement("cbc:RegistrationName")
	assert.Equal(t, `Fish & Chips <Ltd> "Riyadh"`, name.Text())
}

func TestAssemble_SimplifiedTypeCodeName(t *testing.T) {
	inv := sampleInvoice()
	inv.Type = model.Simplified

	out := assemble(t, inv)
	assert.Contains(t, out, `name="0200000"`)
}

func TestAssemble_BillingReference(t *testing.T) {
	inv := sampleInvoice()
	inv.BillingReference = "INV-41"

	out := assemble(t, inv)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	ref := doc.Root().SelectElement("cac:BillingReference")
	require.NotNil(t, ref)
	assert.Equal(t, "INV-41", ref.SelectElement("cac:InvoiceDocumentReference").SelectElement("cbc:ID").Text())
}

func TestValidate_AssembledDocumentIsClean(t *testing.T) {
	out := assemble(t, sampleInvoice())

	report := Validate(out)
	assert.True(t, report.IsValid())
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidate_MalformedInput(t *testing.T) {
	report := Validate("<Invoice")
	assert.False(t, report.IsValid())
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "well-formed")
}

func TestValidate_MissingBlocks(t *testing.T) {
	report := Validate(`<Invoice xmlns="` + NamespaceInvoice + `"></Invoice>`)
	assert.False(t, report.IsValid())
	assert.Len(t, report.Errors, 6)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "no lines")
}

func TestValidate_NoLinesIsWarningOnly(t *testing.T) {
	inv := sampleInvoice()
	inv.Lines = nil

	out := assemble(t, inv)
	report := Validate(out)
	assert.True(t, report.IsValid(), "zero-line invoice is odd but not disallowed")
	require.Len(t, report.Warnings, 1)
	assert.True(t, strings.Contains(report.Warnings[0], "no lines"))
}
