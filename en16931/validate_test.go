package en16931

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ciiFixture struct {
	TypeCode      string
	UnitCode      string
	VatCategory   string
	Price         string
	LineNet       string
	LineTotal     string
	TaxBasis      string
	VatAmount     string
	GrandTotal    string
	DuePayable    string
	SellerCountry string
}

func defaultFixture() ciiFixture {
	return ciiFixture{
		TypeCode:      "380",
		UnitCode:      "C62",
		VatCategory:   "S",
		Price:         "100.00",
		LineNet:       "100.00",
		LineTotal:     "100.00",
		TaxBasis:      "100.00",
		VatAmount:     "21.00",
		GrandTotal:    "121.00",
		DuePayable:    "121.00",
		SellerCountry: "CZ",
	}
}

func (f ciiFixture) render() []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
  xmlns:ram="urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
  xmlns:udt="urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100">
  <rsm:ExchangedDocument>
    <ram:ID>1026000001</ram:ID>
    <ram:TypeCode>%s</ram:TypeCode>
    <ram:IssueDateTime><udt:DateTimeString format="102">20260615</udt:DateTimeString></ram:IssueDateTime>
  </rsm:ExchangedDocument>
  <rsm:SupplyChainTradeTransaction>
    <ram:IncludedSupplyChainTradeLineItem>
      <ram:AssociatedDocumentLineDocument><ram:LineID>1</ram:LineID></ram:AssociatedDocumentLineDocument>
      <ram:SpecifiedTradeProduct><ram:Name>Hosting</ram:Name></ram:SpecifiedTradeProduct>
      <ram:SpecifiedLineTradeAgreement>
        <ram:NetPriceProductTradePrice><ram:ChargeAmount>%s</ram:ChargeAmount></ram:NetPriceProductTradePrice>
      </ram:SpecifiedLineTradeAgreement>
      <ram:SpecifiedLineTradeDelivery>
        <ram:BilledQuantity unitCode="%s">1</ram:BilledQuantity>
      </ram:SpecifiedLineTradeDelivery>
      <ram:SpecifiedLineTradeSettlement>
        <ram:ApplicableTradeTax>
          <ram:TypeCode>VAT</ram:TypeCode>
          <ram:CategoryCode>%s</ram:CategoryCode>
          <ram:RateApplicablePercent>21</ram:RateApplicablePercent>
        </ram:ApplicableTradeTax>
        <ram:SpecifiedTradeSettlementLineMonetarySummation>
          <ram:LineTotalAmount>%s</ram:LineTotalAmount>
        </ram:SpecifiedTradeSettlementLineMonetarySummation>
      </ram:SpecifiedLineTradeSettlement>
    </ram:IncludedSupplyChainTradeLineItem>
    <ram:ApplicableHeaderTradeAgreement>
      <ram:SellerTradeParty>
        <ram:Name>Example s.r.o.</ram:Name>
        <ram:PostalTradeAddress><ram:CountryID>%s</ram:CountryID></ram:PostalTradeAddress>
        <ram:SpecifiedTaxRegistration><ram:ID schemeID="VA">CZ12345678</ram:ID></ram:SpecifiedTaxRegistration>
      </ram:SellerTradeParty>
      <ram:BuyerTradeParty>
        <ram:Name>Customer GmbH</ram:Name>
        <ram:PostalTradeAddress><ram:CountryID>DE</ram:CountryID></ram:PostalTradeAddress>
        <ram:SpecifiedTaxRegistration><ram:ID schemeID="VA">DE987654321</ram:ID></ram:SpecifiedTaxRegistration>
      </ram:BuyerTradeParty>
    </ram:ApplicableHeaderTradeAgreement>
    <ram:ApplicableHeaderTradeSettlement>
      <ram:InvoiceCurrencyCode>EUR</ram:InvoiceCurrencyCode>
      <ram:ApplicableTradeTax>
        <ram:CalculatedAmount>%s</ram:CalculatedAmount>
        <ram:TypeCode>VAT</ram:TypeCode>
        <ram:BasisAmount>%s</ram:BasisAmount>
        <ram:CategoryCode>S</ram:CategoryCode>
        <ram:RateApplicablePercent>21</ram:RateApplicablePercent>
      </ram:ApplicableTradeTax>
      <ram:SpecifiedTradePaymentTerms>
        <ram:DueDateDateTime><udt:DateTimeString format="102">20260629</udt:DateTimeString></ram:DueDateDateTime>
      </ram:SpecifiedTradePaymentTerms>
      <ram:SpecifiedTradeSettlementHeaderMonetarySummation>
        <ram:LineTotalAmount>%s</ram:LineTotalAmount>
        <ram:TaxBasisTotalAmount>%s</ram:TaxBasisTotalAmount>
        <ram:TaxTotalAmount currencyID="EUR">%s</ram:TaxTotalAmount>
        <ram:GrandTotalAmount>%s</ram:GrandTotalAmount>
        <ram:DuePayableAmount>%s</ram:DuePayableAmount>
      </ram:SpecifiedTradeSettlementHeaderMonetarySummation>
    </ram:ApplicableHeaderTradeSettlement>
  </rsm:SupplyChainTradeTransaction>
</rsm:CrossIndustryInvoice>`,
		f.TypeCode, f.Price, f.UnitCode, f.VatCategory, f.LineNet, f.SellerCountry,
		f.VatAmount, f.TaxBasis, f.LineTotal, f.TaxBasis, f.VatAmount, f.GrandTotal, f.DuePayable))
}

func ruleCodes(issues []Issue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Rule)
	}
	return codes
}

func TestValidate_CleanDocument(t *testing.T) {
	valid, errs, warnings, err := ValidateBytes(defaultFixture().render())
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestValidate_WrongRootRejectedImmediately(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?><Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"><ID>1</ID></Invoice>`)
	valid, errs, warnings, err := ValidateBytes(doc)
	require.NoError(t, err)
	assert.False(t, valid)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleWrongRoot, errs[0].Rule)
	assert.Empty(t, warnings)
}

func TestValidate_UnparseableXML(t *testing.T) {
	_, _, _, err := ValidateBytes([]byte("<rsm:CrossIndustryInvoice>"))
	require.Error(t, err)
}

func TestValidate_LineSumMismatchFiresExactlyOnce(t *testing.T) {
	f := defaultFixture()
	// lines sum to 90, declared line total stays 100; downstream aggregates
	// build on declared values, so exactly one rule trips
	f.Price = "90.00"
	f.LineNet = "90.00"

	valid, errs, _, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.False(t, valid)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleLineTotalMismatch, errs[0].Rule)
}

func TestValidate_GrandTotalTolerance(t *testing.T) {
	f := defaultFixture()
	f.GrandTotal = "121.01"
	f.DuePayable = "121.01"
	valid, errs, _, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.True(t, valid, "0.01 deviation is within tolerance, got %v", errs)

	f.GrandTotal = "121.03"
	f.DuePayable = "121.03"
	valid, errs, _, err = ValidateBytes(f.render())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, ruleCodes(errs), RuleGrandTotalMismatch)
	assert.NotContains(t, ruleCodes(errs), RuleDuePayableMismatch)
}

func TestValidate_NegativeDuePayable(t *testing.T) {
	f := defaultFixture()
	f.DuePayable = "-1.00"
	valid, errs, _, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, ruleCodes(errs), RuleDuePayableNegative)
}

func TestValidate_UnknownVatCategory(t *testing.T) {
	f := defaultFixture()
	f.VatCategory = "X"
	valid, errs, _, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, ruleCodes(errs), RuleLineVatCategoryUnknown)
}

func TestValidate_UnknownUnitIsOnlyAWarning(t *testing.T) {
	f := defaultFixture()
	f.UnitCode = "XYZ"
	valid, errs, warnings, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Empty(t, errs)
	assert.Contains(t, ruleCodes(warnings), RuleLineUnitCodeUnknown)
}

func TestValidate_UnknownTypeCode(t *testing.T) {
	f := defaultFixture()
	f.TypeCode = "999"
	valid, errs, _, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, ruleCodes(errs), RuleTypeCodeUnknown)
}

func TestValidate_MalformedCountryCode(t *testing.T) {
	f := defaultFixture()
	f.SellerCountry = "Czechia"
	valid, errs, _, err := ValidateBytes(f.render())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, ruleCodes(errs), RuleSellerCountryMalformed)
}

func TestValidate_MissingVatTotalWithBreakdown(t *testing.T) {
	doc := string(defaultFixture().render())
	open := strings.Index(doc, `<ram:TaxTotalAmount currencyID="EUR">`)
	close := strings.Index(doc, "</ram:TaxTotalAmount>") + len("</ram:TaxTotalAmount>")
	require.True(t, open >= 0 && close > open)

	valid, errs, _, err := ValidateBytes([]byte(doc[:open] + doc[close:]))
	require.NoError(t, err)
	assert.False(t, valid)
	codes := ruleCodes(errs)
	assert.Contains(t, codes, RuleVatTotalMismatch)
	// grand total still matches tax basis + category VAT sum, so the absence
	// must not bleed into the grand-total rule
	assert.NotContains(t, codes, RuleGrandTotalMismatch)
}

func TestValidate_MissingPaymentTermsForPositiveDue(t *testing.T) {
	doc := string(defaultFixture().render())
	open := strings.Index(doc, "<ram:SpecifiedTradePaymentTerms>")
	close := strings.Index(doc, "</ram:SpecifiedTradePaymentTerms>") + len("</ram:SpecifiedTradePaymentTerms>")
	require.True(t, open >= 0 && close > open)

	valid, errs, _, err := ValidateBytes([]byte(doc[:open] + doc[close:]))
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, ruleCodes(errs), RulePaymentTermsMissing)
}
