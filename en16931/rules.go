package en16931

// EN 16931 business rule codes. These are the output contract: consumers key
// off the code, never the message text.
const (
	RuleWrongRoot = "BR-CII-01"

	RuleInvoiceNumberMissing = "BR-02"
	RuleIssueDateMissing     = "BR-03"
	RuleTypeCodeMissing      = "BR-04"
	RuleTypeCodeUnknown      = "BR-CL-01"

	RuleSellerNameMissing      = "BR-06"
	RuleBuyerNameMissing       = "BR-07"
	RuleSellerAddressMissing   = "BR-08"
	RuleSellerCountryMissing   = "BR-09"
	RuleBuyerAddressMissing    = "BR-10"
	RuleBuyerCountryMissing    = "BR-11"
	RuleSellerCountryMalformed = "BR-CL-14"
	RuleBuyerCountryMalformed  = "BR-CL-15"
	RuleVatIdentifierMissing   = "BR-CO-26"

	RuleNoInvoiceLines         = "BR-16"
	RuleLineIdMissing          = "BR-21"
	RuleLineQuantityMissing    = "BR-22"
	RuleLineUnitCodeUnknown    = "BR-CL-23"
	RuleLineNetMissing         = "BR-24"
	RuleLineNameMissing        = "BR-25"
	RuleLinePriceMissing       = "BR-26"
	RuleLinePriceNegative      = "BR-27"
	RuleLineVatCategoryMissing = "BR-CO-4"
	RuleLineVatCategoryUnknown = "BR-CL-17"
	RuleLineNetMismatch        = "BR-CO-27"
	RuleLineNetNegative        = "BR-CO-28"

	RuleLineTotalMissing  = "BR-12"
	RuleTaxBasisMissing   = "BR-13"
	RuleGrandTotalMissing = "BR-14"
	RuleDuePayableMissing = "BR-15"

	RuleLineTotalMismatch      = "BR-CO-10"
	RuleAllowanceTotalMismatch = "BR-CO-11"
	RuleGrandTotalMismatch     = "BR-CO-12"
	RuleTaxBasisMismatch       = "BR-CO-13"
	RuleVatTotalMismatch       = "BR-CO-14"
	RuleDuePayableMismatch     = "BR-CO-16"
	RuleCategoryVatMismatch    = "BR-CO-17"
	RuleChargeTotalMismatch    = "BR-CO-19"
	RuleDuePayableNegative     = "BR-CO-29"

	RulePaymentTermsMissing = "BR-CO-25"
)

// vatCategoryCodes is the closed UNCL5305 subset EN 16931 admits.
var vatCategoryCodes = map[string]bool{
	"S": true, "Z": true, "E": true, "AE": true,
	"K": true, "G": true, "O": true, "L": true, "M": true,
}

// invoiceTypeCodes is the UNTDID 1001 subset valid for EN 16931 invoices.
var invoiceTypeCodes = map[string]bool{
	"380": true, "381": true, "383": true, "384": true,
	"386": true, "389": true, "751": true,
}

// unitCodes is the subset of UN/ECE Recommendation 20/21 codes we recognise.
// An unknown unit is advisory only; the code list is huge and open-ended.
var unitCodes = map[string]bool{
	"C62": true, "H87": true, "HUR": true, "DAY": true,
	"MON": true, "ANN": true, "KGM": true, "GRM": true,
	"MTR": true, "LTR": true, "EA": true, "SET": true,
}
