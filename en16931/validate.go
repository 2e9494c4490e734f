package en16931

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Issue is one reported rule violation. Rule is stable across releases;
// Message is for humans only.
type Issue struct {
	Rule    string `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// tolerance absorbs the rounding slack the standard allows when re-derived
// aggregates are compared against declared ones.
var tolerance = decimal.New(2, -2)

var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidateBytes checks a CII e-invoice document against the EN 16931 business
// rules. It re-derives every aggregate monetary amount from its declared
// components and compares within tolerance. Errors fail the document,
// warnings are advisory reconciliations. Only an unparseable document returns
// a non-nil error.
func ValidateBytes(b []byte) (bool, []Issue, []Issue, error) {
	var doc ciiDocument
	if err := xml.Unmarshal(b, &doc); err != nil {
		return false, nil, nil, fmt.Errorf("unparseable XML: %w", err)
	}

	c := &checker{}
	if doc.XMLName.Local != "CrossIndustryInvoice" {
		c.errorf(RuleWrongRoot, "/", "unsupported root element %q, expected CrossIndustryInvoice", doc.XMLName.Local)
		return false, c.errors, c.warnings, nil
	}

	c.checkHeader(doc.Document)
	c.checkParty("SellerTradeParty", doc.Transaction.Agreement.Seller,
		RuleSellerNameMissing, RuleSellerAddressMissing, RuleSellerCountryMissing, RuleSellerCountryMalformed, true)
	c.checkParty("BuyerTradeParty", doc.Transaction.Agreement.Buyer,
		RuleBuyerNameMissing, RuleBuyerAddressMissing, RuleBuyerCountryMissing, RuleBuyerCountryMalformed, false)
	lineSum := c.checkLines(doc.Transaction.Lines)
	c.checkTotals(doc.Transaction.Settlement, lineSum)

	return len(c.errors) == 0, c.errors, c.warnings, nil
}

type checker struct {
	errors   []Issue
	warnings []Issue
}

func (c *checker) errorf(rule, field, format string, args ...any) {
	c.errors = append(c.errors, Issue{Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) warnf(rule, field, format string, args ...any) {
	c.warnings = append(c.warnings, Issue{Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) checkHeader(doc exchangedDocument) {
	if doc.ID == "" {
		c.errorf(RuleInvoiceNumberMissing, "ExchangedDocument/ID", "invoice number is missing")
	}
	if doc.IssueDateTime.DateTimeString == "" {
		c.errorf(RuleIssueDateMissing, "ExchangedDocument/IssueDateTime", "issue date is missing")
	}
	switch {
	case doc.TypeCode == "":
		c.errorf(RuleTypeCodeMissing, "ExchangedDocument/TypeCode", "invoice type code is missing")
	case !invoiceTypeCodes[doc.TypeCode]:
		c.errorf(RuleTypeCodeUnknown, "ExchangedDocument/TypeCode", "invoice type code %q is not a valid invoice type", doc.TypeCode)
	}
}

func (c *checker) checkParty(field string, party tradeParty, nameRule, addressRule, countryRule, countryFormatRule string, seller bool) {
	if party.Name == "" {
		c.errorf(nameRule, field+"/Name", "party name is missing")
	}
	switch {
	case party.PostalAddress == nil:
		c.errorf(addressRule, field+"/PostalTradeAddress", "postal address is missing")
	case party.PostalAddress.CountryID == "":
		c.errorf(countryRule, field+"/PostalTradeAddress/CountryID", "country code is missing")
	case !countryCodePattern.MatchString(party.PostalAddress.CountryID):
		c.errorf(countryFormatRule, field+"/PostalTradeAddress/CountryID", "country code %q is not ISO 3166-1 alpha-2", party.PostalAddress.CountryID)
	}

	hasVat := false
	for _, reg := range party.TaxRegistrations {
		if reg.ID.Value != "" && (reg.ID.SchemeID == "VA" || reg.ID.SchemeID == "") {
			hasVat = true
		}
	}
	if !hasVat {
		if seller {
			c.errorf(RuleVatIdentifierMissing, field+"/SpecifiedTaxRegistration", "seller VAT identifier is missing")
		} else {
			c.warnf(RuleVatIdentifierMissing, field+"/SpecifiedTaxRegistration", "buyer VAT identifier is missing")
		}
	}
}

// checkLines validates every invoice line and returns the sum of line net
// amounts feeding the document-level line-total cross-check. Declared line
// nets are preferred; a line without one contributes its derived net so a
// single missing element does not cascade into a sum mismatch.
func (c *checker) checkLines(lines []tradeLine) decimal.Decimal {
	if len(lines) == 0 {
		c.errorf(RuleNoInvoiceLines, "SupplyChainTradeTransaction", "invoice has no lines")
		return decimal.Zero
	}

	sum := decimal.Zero
	for i, line := range lines {
		field := fmt.Sprintf("IncludedSupplyChainTradeLineItem[%d]", i)
		if line.LineDocument.LineID == "" {
			c.errorf(RuleLineIdMissing, field+"/AssociatedDocumentLineDocument/LineID", "line identifier is missing")
		}
		if line.Product.Name == "" {
			c.errorf(RuleLineNameMissing, field+"/SpecifiedTradeProduct/Name", "item name is missing")
		}

		quantity, hasQuantity := parseAmount(line.Delivery.BilledQuantity.Value)
		if !hasQuantity {
			c.errorf(RuleLineQuantityMissing, field+"/SpecifiedLineTradeDelivery/BilledQuantity", "billed quantity is missing")
		} else if !unitCodes[line.Delivery.BilledQuantity.UnitCode] {
			c.warnf(RuleLineUnitCodeUnknown, field+"/SpecifiedLineTradeDelivery/BilledQuantity", "unit code %q is not a recognised unit", line.Delivery.BilledQuantity.UnitCode)
		}

		price, hasPrice := parseAmount(line.Agreement.NetPrice.ChargeAmount.Value)
		switch {
		case !hasPrice:
			c.errorf(RuleLinePriceMissing, field+"/NetPriceProductTradePrice/ChargeAmount", "item net price is missing")
		case price.IsNegative():
			c.errorf(RuleLinePriceNegative, field+"/NetPriceProductTradePrice/ChargeAmount", "item net price must not be negative")
		}

		switch category := line.Settlement.Tax.CategoryCode; {
		case category == "":
			c.errorf(RuleLineVatCategoryMissing, field+"/ApplicableTradeTax/CategoryCode", "line VAT category code is missing")
		case !vatCategoryCodes[category]:
			c.errorf(RuleLineVatCategoryUnknown, field+"/ApplicableTradeTax/CategoryCode", "VAT category code %q is not in the allowed set", category)
		}

		allowances, charges := sumAllowanceCharges(line.Settlement.AllowanceCharges)
		derived := quantity.Mul(price).Sub(allowances).Add(charges)

		declared, hasDeclared := parseAmount(line.Settlement.Summation.LineTotalAmount.Value)
		if !hasDeclared {
			c.errorf(RuleLineNetMissing, field+"/SpecifiedTradeSettlementLineMonetarySummation/LineTotalAmount", "line net amount is missing")
			sum = sum.Add(derived)
			continue
		}
		if declared.IsNegative() {
			c.errorf(RuleLineNetNegative, field+"/SpecifiedTradeSettlementLineMonetarySummation/LineTotalAmount", "line net amount %s is negative", declared)
		}
		if hasQuantity && hasPrice && !withinTolerance(declared, derived) {
			c.warnf(RuleLineNetMismatch, field+"/SpecifiedTradeSettlementLineMonetarySummation/LineTotalAmount",
				"declared line net %s differs from quantity × price − allowances + charges = %s", declared, derived)
		}
		sum = sum.Add(declared)
	}
	return sum
}

func (c *checker) checkTotals(settlement tradeSettlement, lineSum decimal.Decimal) {
	summation := settlement.Summation
	base := "SpecifiedTradeSettlementHeaderMonetarySummation"

	lineTotal, hasLineTotal := parseAmount(summation.LineTotalAmount.Value)
	if !hasLineTotal {
		c.errorf(RuleLineTotalMissing, base+"/LineTotalAmount", "sum of line net amounts is missing")
	} else if !withinTolerance(lineTotal, lineSum) {
		c.errorf(RuleLineTotalMismatch, base+"/LineTotalAmount",
			"declared line total %s differs from sum of line nets %s", lineTotal, lineSum)
	}

	docAllowances, docCharges := sumAllowanceCharges(settlement.AllowanceCharges)
	allowanceTotal, hasAllowanceTotal := parseAmount(summation.AllowanceTotalAmount.Value)
	if hasAllowanceTotal || !docAllowances.IsZero() {
		if !withinTolerance(allowanceTotal, docAllowances) {
			c.warnf(RuleAllowanceTotalMismatch, base+"/AllowanceTotalAmount",
				"declared allowance total %s differs from sum of document allowances %s", allowanceTotal, docAllowances)
		}
	}
	chargeTotal, hasChargeTotal := parseAmount(summation.ChargeTotalAmount.Value)
	if hasChargeTotal || !docCharges.IsZero() {
		if !withinTolerance(chargeTotal, docCharges) {
			c.warnf(RuleChargeTotalMismatch, base+"/ChargeTotalAmount",
				"declared charge total %s differs from sum of document charges %s", chargeTotal, docCharges)
		}
	}

	// Each aggregate derives from declared components, never re-derived
	// ones, so a single inconsistent value trips exactly one rule.
	taxBasis, hasTaxBasis := parseAmount(summation.TaxBasisTotalAmount.Value)
	if !hasTaxBasis {
		c.errorf(RuleTaxBasisMissing, base+"/TaxBasisTotalAmount", "tax basis total is missing")
	} else if hasLineTotal {
		derived := lineTotal.Sub(allowanceTotal).Add(chargeTotal)
		if !withinTolerance(taxBasis, derived) {
			c.errorf(RuleTaxBasisMismatch, base+"/TaxBasisTotalAmount",
				"declared tax basis %s differs from line total − allowances + charges = %s", taxBasis, derived)
		}
	}

	vatTotal, hasVatTotal := parseAmount(summation.taxTotal(settlement.InvoiceCurrencyCode).Value)
	vatSum := decimal.Zero
	for i, tax := range settlement.TradeTaxes {
		field := fmt.Sprintf("ApplicableTradeTax[%d]", i)
		calculated, hasCalculated := parseAmount(tax.CalculatedAmount.Value)
		if hasCalculated {
			vatSum = vatSum.Add(calculated)
		}
		basis, hasBasis := parseAmount(tax.BasisAmount.Value)
		rate, hasRate := parseAmount(tax.RateApplicablePercent)
		if hasCalculated && hasBasis && hasRate {
			expected := basis.Mul(rate).Div(decimal.New(100, 0))
			if !withinTolerance(calculated, expected) {
				c.warnf(RuleCategoryVatMismatch, field+"/CalculatedAmount",
					"category %s VAT %s differs from basis × rate = %s", tax.CategoryCode, calculated, expected)
			}
		}
	}
	// effectiveVat keeps the grand-total derivation usable when the declared
	// VAT total is absent, so the absence trips only its own rule below.
	effectiveVat := vatTotal
	switch {
	case !hasVatTotal && len(settlement.TradeTaxes) > 0:
		c.errorf(RuleVatTotalMismatch, base+"/TaxTotalAmount",
			"VAT total is missing while category amounts sum to %s", vatSum)
		effectiveVat = vatSum
	case hasVatTotal && !withinTolerance(vatTotal, vatSum):
		c.errorf(RuleVatTotalMismatch, base+"/TaxTotalAmount",
			"declared VAT total %s differs from sum of category amounts %s", vatTotal, vatSum)
	}

	grandTotal, hasGrandTotal := parseAmount(summation.GrandTotalAmount.Value)
	if !hasGrandTotal {
		c.errorf(RuleGrandTotalMissing, base+"/GrandTotalAmount", "grand total is missing")
	} else if hasTaxBasis {
		derived := taxBasis.Add(effectiveVat)
		if !withinTolerance(grandTotal, derived) {
			c.errorf(RuleGrandTotalMismatch, base+"/GrandTotalAmount",
				"declared grand total %s differs from tax basis + VAT total = %s", grandTotal, derived)
		}
	}

	prepaid, _ := parseAmount(summation.TotalPrepaidAmount.Value)
	rounding, _ := parseAmount(summation.RoundingAmount.Value)
	duePayable, hasDuePayable := parseAmount(summation.DuePayableAmount.Value)
	switch {
	case !hasDuePayable:
		c.errorf(RuleDuePayableMissing, base+"/DuePayableAmount", "amount due for payment is missing")
	case duePayable.IsNegative():
		c.errorf(RuleDuePayableNegative, base+"/DuePayableAmount", "amount due for payment %s is negative", duePayable)
	case hasGrandTotal:
		derived := grandTotal.Sub(prepaid).Add(rounding)
		if !withinTolerance(duePayable, derived) {
			c.errorf(RuleDuePayableMismatch, base+"/DuePayableAmount",
				"declared amount due %s differs from grand total − prepaid + rounding = %s", duePayable, derived)
		}
	}

	if hasDuePayable && duePayable.IsPositive() && !hasPaymentInstructions(settlement) {
		c.errorf(RulePaymentTermsMissing, "SpecifiedTradePaymentTerms",
			"a positive amount due requires a due date or payment terms")
	}
}

func hasPaymentInstructions(settlement tradeSettlement) bool {
	for _, terms := range settlement.PaymentTerms {
		if terms.DueDateDateTime.DateTimeString != "" || terms.Description != "" {
			return true
		}
	}
	return false
}

// sumAllowanceCharges splits a set of allowance/charge elements into the
// allowance and charge sums by the charge indicator.
func sumAllowanceCharges(items []allowanceCharge) (allowances, charges decimal.Decimal) {
	allowances, charges = decimal.Zero, decimal.Zero
	for _, item := range items {
		amount, ok := parseAmount(item.ActualAmount.Value)
		if !ok {
			continue
		}
		if item.isCharge() {
			charges = charges.Add(amount)
		} else {
			allowances = allowances.Add(amount)
		}
	}
	return allowances, charges
}

func withinTolerance(declared, derived decimal.Decimal) bool {
	return declared.Sub(derived).Abs().LessThanOrEqual(tolerance)
}

// parseAmount reads a monetary or numeric text node. Absent and malformed
// values both read as missing; the presence rules carry the reporting.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
