package models

import (
	"fmt"
	"strings"
)

// PaymentQRString renders the bank-transfer QR payload for the invoice
// against the receiving account of its currency. EUR uses the EPC/BCD SEPA
// credit transfer layout, CZK the domestic SPD format. Other currencies have
// no domestic QR standard, so the result is empty.
func (inv *Invoice) PaymentQRString(account *BankAccount) string {
	amount := inv.TotalAmount().StringFixed(2)

	switch inv.Currency {
	case CurrencyEUR:
		return strings.Join([]string{
			"BCD",
			"001",
			"1",
			"SCT",
			account.BIC,
			account.Holder,
			account.IBAN,
			"EUR" + amount,
			"",
			"",
			inv.Number,
		}, "\n")
	case CurrencyCZK:
		return fmt.Sprintf("SPD*1.0*ACC:%s*AM:%s*CC:CZK*RF:%s*RN:%s",
			account.IBAN, amount, inv.Number, account.Holder)
	}
	return ""
}
