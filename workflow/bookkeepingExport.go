package workflow

import (
	"context"
	"fmt"
	"io"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/models"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ExportBookkeeping writes an XLSX sheet of the fiscal year's payable
// invoices with base-currency equivalents, one row per invoice, for handoff
// to the accountant.
func ExportBookkeeping(ctx context.Context, logger *logrus.Logger, fiscalYear int, rp models.RateProvider, w io.Writer) error {
	kind := models.KindInvoice
	invoices, err := models.GetInvoices(ctx, &kind, &fiscalYear)
	if err != nil {
		config.LogError(logger, "bookkeepingExport.go", "ExportBookkeeping", "models.GetInvoices", fiscalYear, err)
		return err
	}

	f := excelize.NewFile()
	_, err = f.NewSheet("Sheet1")
	if err != nil {
		return err
	}

	f.SetCellValue("Sheet1", "A1", "Number")
	f.SetCellValue("Sheet1", "B1", "IssueDate")
	f.SetCellValue("Sheet1", "C1", "TaxDate")
	f.SetCellValue("Sheet1", "D1", "DueDate")
	f.SetCellValue("Sheet1", "E1", "Customer")
	f.SetCellValue("Sheet1", "F1", "Currency")
	f.SetCellValue("Sheet1", "G1", "AmountNoVat")
	f.SetCellValue("Sheet1", "H1", "Vat")
	f.SetCellValue("Sheet1", "I1", "Amount")
	f.SetCellValue("Sheet1", "J1", "RateCZK")
	f.SetCellValue("Sheet1", "K1", "AmountNoVatCZK")
	f.SetCellValue("Sheet1", "L1", "VatCZK")
	f.SetCellValue("Sheet1", "M1", "AmountCZK")
	f.SetCellValue("Sheet1", "N1", "Paid")

	for i, inv := range invoices {
		row := fmt.Sprint(i + 2)
		rate, err := inv.ExchangeRateCZK(ctx, rp)
		if err != nil {
			config.LogError(logger, "bookkeepingExport.go", "ExportBookkeeping", "ExchangeRateCZK", inv.Number, err)
			return err
		}
		noVatCZK, err := inv.TotalAmountNoVatCZK(ctx, rp)
		if err != nil {
			return err
		}
		vatCZK, err := inv.TotalVatCZK(ctx, rp)
		if err != nil {
			return err
		}
		amountCZK, err := inv.TotalAmountCZK(ctx, rp)
		if err != nil {
			return err
		}

		f.SetCellValue("Sheet1", "A"+row, inv.Number)
		f.SetCellValue("Sheet1", "B"+row, inv.IssueDate.Format("2006-01-02"))
		f.SetCellValue("Sheet1", "C"+row, inv.TaxDate.Format("2006-01-02"))
		f.SetCellValue("Sheet1", "D"+row, inv.DueDate.Format("2006-01-02"))
		if inv.Customer != nil {
			f.SetCellValue("Sheet1", "E"+row, inv.Customer.Name)
		}
		f.SetCellValue("Sheet1", "F"+row, string(inv.Currency))
		f.SetCellValue("Sheet1", "G"+row, inv.TotalAmountNoVat().String())
		f.SetCellValue("Sheet1", "H"+row, inv.TotalVat().String())
		f.SetCellValue("Sheet1", "I"+row, inv.TotalAmount().String())
		f.SetCellValue("Sheet1", "J"+row, rate.String())
		f.SetCellValue("Sheet1", "K"+row, noVatCZK.String())
		f.SetCellValue("Sheet1", "L"+row, vatCZK.String())
		f.SetCellValue("Sheet1", "M"+row, amountCZK.String())
		f.SetCellValue("Sheet1", "N"+row, inv.IsPaid())
	}

	return f.Write(w)
}
