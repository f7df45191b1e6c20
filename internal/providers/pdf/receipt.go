package pdf

import (
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptData struct {
	InvoiceData
	DatePaid string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	m := newDocument()

	header(m, "Receipt", receipt.LogoPath)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+receipt.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date paid: "+receipt.DatePaid, props.Text{Top: 4}),
			text.New("Date of issue: "+receipt.IssueDate, props.Text{Top: 8}),
		),
		col.New(6),
	)

	parties(m, receipt.InvoiceData)
	details(m, "Project", receipt.ProjectDetails)

	m.AddRow(15,
		text.NewCol(12, receipt.Total+" paid on "+receipt.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	items(m, receipt.Items)
	totals(m, receipt.InvoiceData)

	return generate(m)
}
