package ubl

import (
	"github.com/beevik/etree"

	"github.com/alapierre/go-zatca-client/zatca/model"
)

// Validate checks an invoice document against the structural compliance
// rules: required identifiers, namespace, party blocks and totals are
// errors; a document with no invoice lines is odd but only a warning.
// Malformed input never panics, it becomes a report error.
func Validate(xml string) model.ValidationReport {
	var report model.ValidationReport

	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		report.Errorf("document is not well-formed XML: %v", err)
		return report
	}

	root := doc.Root()
	if root == nil || root.Tag != "Invoice" {
		report.Errorf("root element is not Invoice")
		return report
	}
	if ns := root.SelectAttrValue("xmlns", ""); ns != NamespaceInvoice {
		report.Errorf("missing or wrong invoice namespace declaration")
	}

	if el := root.SelectElement("cbc:ProfileID"); el == nil || el.Text() == "" {
		report.Errorf("profile identifier is missing")
	}
	if el := root.SelectElement("cbc:InvoiceTypeCode"); el == nil || el.Text() == "" {
		report.Errorf("invoice type code is missing")
	}
	if root.SelectElement("cac:AccountingSupplierParty") == nil {
		report.Errorf("supplier party block is missing")
	}
	if root.SelectElement("cac:AccountingCustomerParty") == nil {
		report.Errorf("customer party block is missing")
	}
	if root.SelectElement("cac:TaxTotal") == nil {
		report.Errorf("tax total block is missing")
	}
	if root.SelectElement("cac:LegalMonetaryTotal") == nil {
		report.Errorf("legal monetary total block is missing")
	}
	if len(root.SelectElements("cac:InvoiceLine")) == 0 {
		report.Warnf("invoice has no lines")
	}
	return report
}
