package reports

import (
	"context"
	"fmt"

	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

func renderPDF(title string, rows []row, total decimal.Decimal) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	// Table Header
	m.AddRow(8,
		text.NewCol(2, "Invoice", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Party", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Store", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Pay", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, r := range rows {
		m.AddRow(7,
			text.NewCol(2, r.InvoiceNo, props.Text{Size: 9}),
			text.NewCol(2, r.Date, props.Text{Size: 9}),
			text.NewCol(3, r.Party, props.Text{Size: 9}),
			text.NewCol(2, r.Store, props.Text{Size: 9}),
			text.NewCol(1, r.Payment, props.Text{Size: 9}),
			text.NewCol(2, r.Amount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, total.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// RenderSaleInvoicePDF builds the printable receipt for a single sale.
func RenderSaleInvoicePDF(ctx context.Context, sale *models.Sale) ([]byte, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Invoice "+sale.InvoiceNo, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	customerName := "Walk-in"
	if sale.Customer != nil {
		customerName = sale.Customer.Name
	}
	storeName := ""
	if sale.Store != nil {
		storeName = sale.Store.Name
	}
	m.AddRow(18,
		col.New(6).Add(
			text.New("Date: "+sale.Date.Format("2006-01-02"), props.Text{Top: 0}),
			text.New("Customer: "+customerName, props.Text{Top: 4}),
			text.New("Payment: "+string(sale.PaymentMethod), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New(storeName, props.Text{Style: fontstyle.Bold}),
		),
	)

	// Table Header
	m.AddRow(8,
		text.NewCol(6, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range sale.Items {
		name := fmt.Sprintf("#%d", item.ProductId)
		if item.Product != nil {
			name = item.Product.Name
		}
		m.AddRow(7,
			text.NewCol(6, name, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Rate.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, sale.TotalAmount.Add(sale.DiscountAmount).StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Discount", props.Text{Size: 9}),
		text.NewCol(2, sale.DiscountAmount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Tax", props.Text{Size: 9}),
		text.NewCol(2, sale.TaxAmount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, sale.FinalAmount.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
