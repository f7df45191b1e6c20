package pdf

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceData struct {
	OrgName    string
	OrgAddress string
	OrgEmail   string
	OrgTaxID   string
	LogoPath   string
	QRPath     string

	InvoiceNumber string
	Status        string
	IssueDate     string
	DueDate       string
	Developer     string

	BillToName    string
	BillToCompany string
	BillToAddress string
	BillToEmail   string

	ProjectDetails []Detail
	BankDetails    []Detail
	PaymentNote    string
	Terms          string

	Items []InvoiceItem

	Subtotal  string
	Taxes     []Detail
	Discount  string
	Total     string
	AmountDue string
}

type InvoiceItem struct {
	Description string
	Qty         string
	UnitPrice   string
	Amount      string
}

// Detail is a label and value pair printed as one line.
type Detail struct {
	Label string
	Value string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice InvoiceData) (io.Reader, error) {
	m := newDocument()

	header(m, "Invoice", invoice.LogoPath)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+invoice.IssueDate, props.Text{Top: 4}),
			text.New("Date due: "+invoice.DueDate, props.Text{Top: 8}),
			text.New("Status: "+invoice.Status, props.Text{Top: 12}),
		),
		col.New(6),
	)

	parties(m, invoice)
	details(m, "Project", invoice.ProjectDetails)

	m.AddRow(15,
		text.NewCol(12, invoice.AmountDue+" due "+invoice.DueDate, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	items(m, invoice.Items)
	totals(m, invoice)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, invoice.AmountDue, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	payment(m, invoice)

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func generate(m core.Maroto) (io.Reader, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

// fileExists keeps a stale logo or QR path from failing the whole document.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func header(m core.Maroto, title, logoPath string) {
	titleCol := text.NewCol(6, title, props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Left,
	})
	if fileExists(logoPath) {
		m.AddRow(40,
			titleCol,
			col.New(3),
			image.NewFromFileCol(3, logoPath, props.Rect{
				Center:  false,
				Percent: 80,
			}),
		)
		return
	}
	m.AddRow(15, titleCol, col.New(6))
}

func parties(m core.Maroto, invoice InvoiceData) {
	from := col.New(6).Add(
		text.New(invoice.OrgName, props.Text{Style: fontstyle.Bold}),
		text.New(invoice.OrgAddress, props.Text{Top: 5}),
		text.New(invoice.OrgEmail, props.Text{Top: 20}),
	)
	if invoice.OrgTaxID != "" {
		from.Add(text.New("Tax ID: "+invoice.OrgTaxID, props.Text{Top: 24}))
	}
	if invoice.Developer != "" {
		from.Add(text.New("Prepared by "+invoice.Developer, props.Text{Top: 28, Size: 8}))
	}

	billTo := col.New(6).Add(
		text.New("Bill to", props.Text{Style: fontstyle.Bold}),
		text.New(invoice.BillToName, props.Text{Top: 5}),
		text.New(invoice.BillToCompany, props.Text{Top: 9}),
		text.New(invoice.BillToAddress, props.Text{Top: 13}),
		text.New(invoice.BillToEmail, props.Text{Top: 25}),
	)

	m.AddRow(40, from, billTo)
}

func details(m core.Maroto, title string, rows []Detail) {
	if len(rows) == 0 {
		return
	}
	m.AddRow(8, text.NewCol(12, title, props.Text{Style: fontstyle.Bold, Size: 10}))
	for _, d := range rows {
		m.AddRow(5,
			text.NewCol(4, d.Label, props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(8, d.Value, props.Text{Size: 9}),
		)
	}
}

func items(m core.Maroto, rows []InvoiceItem) {
	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range rows {
		m.AddRow(15,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Qty, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func totals(m core.Maroto, invoice InvoiceData) {
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, invoice.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	if invoice.Discount != "" {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Discount", props.Text{Size: 9}),
			text.NewCol(2, "-"+invoice.Discount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	for _, tax := range invoice.Taxes {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, tax.Label, props.Text{Size: 9}),
			text.NewCol(2, tax.Value, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9}),
		text.NewCol(2, invoice.Total, props.Text{Size: 9, Align: align.Right}),
	)
}

func payment(m core.Maroto, invoice InvoiceData) {
	if len(invoice.BankDetails) == 0 && invoice.PaymentNote == "" && !fileExists(invoice.QRPath) {
		return
	}

	m.AddRow(10, text.NewCol(12, "Payment details", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}))

	bank := col.New(8)
	top := 0.0
	for _, d := range invoice.BankDetails {
		bank.Add(text.New(d.Label+": "+d.Value, props.Text{Size: 9, Top: top}))
		top += 4
	}
	if invoice.PaymentNote != "" {
		bank.Add(text.New(invoice.PaymentNote, props.Text{Size: 8, Top: top + 2, Style: fontstyle.Italic}))
	}

	if fileExists(invoice.QRPath) {
		m.AddRow(35, bank, image.NewFromFileCol(4, invoice.QRPath, props.Rect{Center: true, Percent: 90}))
	} else {
		m.AddRow(35, bank, col.New(4))
	}

	if invoice.Terms != "" {
		m.AddRow(15, text.NewCol(12, invoice.Terms, props.Text{Size: 8, Top: 3}))
	}
}
