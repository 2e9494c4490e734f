package en16931

import "encoding/xml"

// ciiDocument maps the UN/CEFACT Cross Industry Invoice structure. Tags match
// local element names only, so any namespace prefix binding is accepted.
type ciiDocument struct {
	XMLName     xml.Name
	Document    exchangedDocument `xml:"ExchangedDocument"`
	Transaction tradeTransaction  `xml:"SupplyChainTradeTransaction"`
}

type exchangedDocument struct {
	ID            string `xml:"ID"`
	TypeCode      string `xml:"TypeCode"`
	IssueDateTime struct {
		DateTimeString string `xml:"DateTimeString"`
	} `xml:"IssueDateTime"`
}

type tradeTransaction struct {
	Lines      []tradeLine     `xml:"IncludedSupplyChainTradeLineItem"`
	Agreement  tradeAgreement  `xml:"ApplicableHeaderTradeAgreement"`
	Settlement tradeSettlement `xml:"ApplicableHeaderTradeSettlement"`
}

type tradeLine struct {
	LineDocument struct {
		LineID string `xml:"LineID"`
	} `xml:"AssociatedDocumentLineDocument"`
	Product struct {
		Name string `xml:"Name"`
	} `xml:"SpecifiedTradeProduct"`
	Agreement struct {
		NetPrice struct {
			ChargeAmount amountField `xml:"ChargeAmount"`
		} `xml:"NetPriceProductTradePrice"`
	} `xml:"SpecifiedLineTradeAgreement"`
	Delivery struct {
		BilledQuantity quantityField `xml:"BilledQuantity"`
	} `xml:"SpecifiedLineTradeDelivery"`
	Settlement struct {
		Tax struct {
			CategoryCode          string `xml:"CategoryCode"`
			RateApplicablePercent string `xml:"RateApplicablePercent"`
		} `xml:"ApplicableTradeTax"`
		AllowanceCharges []allowanceCharge `xml:"SpecifiedTradeAllowanceCharge"`
		Summation        struct {
			LineTotalAmount amountField `xml:"LineTotalAmount"`
		} `xml:"SpecifiedTradeSettlementLineMonetarySummation"`
	} `xml:"SpecifiedLineTradeSettlement"`
}

type tradeAgreement struct {
	Seller tradeParty `xml:"SellerTradeParty"`
	Buyer  tradeParty `xml:"BuyerTradeParty"`
}

type tradeParty struct {
	Name          string `xml:"Name"`
	PostalAddress *struct {
		CountryID string `xml:"CountryID"`
	} `xml:"PostalTradeAddress"`
	TaxRegistrations []struct {
		ID struct {
			Value    string `xml:",chardata"`
			SchemeID string `xml:"schemeID,attr"`
		} `xml:"ID"`
	} `xml:"SpecifiedTaxRegistration"`
}

type tradeSettlement struct {
	InvoiceCurrencyCode string            `xml:"InvoiceCurrencyCode"`
	TradeTaxes          []headerTradeTax  `xml:"ApplicableTradeTax"`
	AllowanceCharges    []allowanceCharge `xml:"SpecifiedTradeAllowanceCharge"`
	PaymentTerms        []struct {
		Description     string `xml:"Description"`
		DueDateDateTime struct {
			DateTimeString string `xml:"DateTimeString"`
		} `xml:"DueDateDateTime"`
	} `xml:"SpecifiedTradePaymentTerms"`
	Summation headerSummation `xml:"SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type headerTradeTax struct {
	CalculatedAmount      amountField `xml:"CalculatedAmount"`
	BasisAmount           amountField `xml:"BasisAmount"`
	CategoryCode          string      `xml:"CategoryCode"`
	RateApplicablePercent string      `xml:"RateApplicablePercent"`
}

type allowanceCharge struct {
	ChargeIndicator struct {
		Indicator string `xml:"Indicator"`
	} `xml:"ChargeIndicator"`
	ActualAmount amountField `xml:"ActualAmount"`
	Reason       string      `xml:"Reason"`
}

// isCharge reports whether the allowance/charge element marks a charge
// (indicator true) as opposed to an allowance (indicator false).
func (ac allowanceCharge) isCharge() bool {
	return ac.ChargeIndicator.Indicator == "true" || ac.ChargeIndicator.Indicator == "1"
}

type headerSummation struct {
	LineTotalAmount      amountField   `xml:"LineTotalAmount"`
	AllowanceTotalAmount amountField   `xml:"AllowanceTotalAmount"`
	ChargeTotalAmount    amountField   `xml:"ChargeTotalAmount"`
	TaxBasisTotalAmount  amountField   `xml:"TaxBasisTotalAmount"`
	TaxTotalAmounts      []amountField `xml:"TaxTotalAmount"`
	GrandTotalAmount     amountField   `xml:"GrandTotalAmount"`
	TotalPrepaidAmount   amountField   `xml:"TotalPrepaidAmount"`
	RoundingAmount       amountField   `xml:"RoundingAmount"`
	DuePayableAmount     amountField   `xml:"DuePayableAmount"`
}

// taxTotal picks the TaxTotalAmount quoted in the invoice currency. Documents
// may repeat the element once per currency (accounting currency mirror); an
// element without a currencyID attribute counts as the invoice currency.
func (s headerSummation) taxTotal(currency string) amountField {
	for _, amt := range s.TaxTotalAmounts {
		if amt.CurrencyID == currency || amt.CurrencyID == "" {
			return amt
		}
	}
	if len(s.TaxTotalAmounts) > 0 {
		return s.TaxTotalAmounts[0]
	}
	return amountField{}
}

type amountField struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr"`
}

type quantityField struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}
