package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	clientdomain "github.com/smallbiznis/flowdesk/internal/client/domain"
	"github.com/smallbiznis/flowdesk/internal/config"
	draftdomain "github.com/smallbiznis/flowdesk/internal/draft/domain"
	"github.com/smallbiznis/flowdesk/internal/export/domain"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/smallbiznis/flowdesk/internal/invoice/format"
	profiledomain "github.com/smallbiznis/flowdesk/internal/profile/domain"
	"github.com/smallbiznis/flowdesk/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateLayout = "02 Jan 2006"

type RendererParams struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Invoices invoicedomain.Service
	Clients  clientdomain.Service
	Profile  profiledomain.Service
	PDF      pdf.Provider
}

// PDFRenderer writes invoices to <export dir>/<number>.pdf. The export dir
// is the profile's PDF directory when set, otherwise the configured default.
type PDFRenderer struct {
	defaultDir string
	log        *zap.Logger
	invoices   invoicedomain.Service
	clients    clientdomain.Service
	profile    profiledomain.Service
	pdf        pdf.Provider
}

func NewPDFRenderer(p RendererParams) *PDFRenderer {
	return &PDFRenderer{
		defaultDir: p.Config.Export.Dir,
		log:        p.Log.Named("export.renderer"),
		invoices:   p.Invoices,
		clients:    p.Clients,
		profile:    p.Profile,
		pdf:        p.PDF,
	}
}

func (r *PDFRenderer) RenderInvoice(ctx context.Context, invoiceID string) (string, error) {
	invoice, err := r.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrNotFound) || errors.Is(err, invoicedomain.ErrInvalidID) {
			return "", fail(fmt.Sprintf("invoice %s not found", invoiceID), err)
		}
		return "", fail("could not load invoice", err)
	}

	client, err := r.clients.GetByID(ctx, invoice.ClientID.String())
	if err != nil {
		return "", fail("could not load client for invoice "+invoice.Number, err)
	}

	profile, err := r.profile.Get(ctx)
	if err != nil && !errors.Is(err, profiledomain.ErrNotFound) {
		return "", fail("could not load business profile", err)
	}

	dir := r.defaultDir
	if profile.PDFExportDir != nil && strings.TrimSpace(*profile.PDFExportDir) != "" {
		dir = *profile.PDFExportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fail("cannot create export directory "+dir, err)
	}

	data := buildInvoiceData(invoice, client, profile)

	var doc io.Reader
	if invoice.Status == invoicedomain.StatusPaid {
		doc, err = r.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
			InvoiceData: data,
			DatePaid:    invoice.UpdatedAt.Format(dateLayout),
		})
	} else {
		doc, err = r.pdf.GenerateInvoice(ctx, data)
	}
	if err != nil {
		return "", fail("pdf engine failed: "+err.Error(), err)
	}

	path := filepath.Join(dir, FileName(invoice.Number))
	if err := writeFile(dir, path, doc); err != nil {
		return "", fail("cannot write "+path, err)
	}

	r.log.Debug("export.rendered", zap.String("invoice_id", invoiceID), zap.String("path", path))
	return path, nil
}

func fail(msg string, err error) error {
	return &domain.RenderFailure{Message: msg, Err: err}
}

// FileName turns an invoice number into a safe PDF file name.
func FileName(number string) string {
	name := slug.Make(number)
	if name == "" {
		name = "invoice"
	}
	return name + ".pdf"
}

func writeFile(dir, path string, doc io.Reader) error {
	tmp, err := os.CreateTemp(dir, ".export-*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func buildInvoiceData(invoice invoicedomain.Invoice, client clientdomain.Client, profile profiledomain.BusinessProfile) pdf.InvoiceData {
	data := pdf.InvoiceData{
		OrgName:       profile.Name,
		OrgAddress:    profile.Address,
		OrgEmail:      deref(profile.Email),
		OrgTaxID:      deref(profile.TaxID),
		LogoPath:      deref(profile.LogoPath),
		QRPath:        deref(profile.QRPath),
		InvoiceNumber: invoice.Number,
		Status:        string(invoice.Status),
		IssueDate:     invoice.IssueDate.Format(dateLayout),
		DueDate:       invoice.DueDate.Format(dateLayout),
		BillToName:    client.Name,
		BillToCompany: deref(client.Company),
		BillToAddress: client.Address,
		BillToEmail:   deref(client.Email),
		Terms:         invoice.Terms,
		Subtotal:      format.Money(invoice.Currency, invoice.Subtotal),
		Total:         format.Money(invoice.Currency, invoice.Total),
		AmountDue:     format.Money(invoice.Currency, invoice.AmountDue),
	}
	if !invoice.DiscountTotal.IsZero() {
		data.Discount = format.Money(invoice.Currency, invoice.DiscountTotal)
	}
	if len(invoice.TaxRates) > 0 {
		names := make([]string, 0, len(invoice.TaxRates))
		for _, rate := range invoice.TaxRates {
			names = append(names, fmt.Sprintf("%s %s%%", rate.Name, rate.Rate.String()))
		}
		data.Taxes = []pdf.Detail{{
			Label: strings.Join(names, ", "),
			Value: format.Money(invoice.Currency, invoice.TaxTotal),
		}}
	}

	for _, item := range invoice.Items {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: item.Description,
			Qty:         item.Quantity.String(),
			UnitPrice:   format.Money(invoice.Currency, item.UnitPrice),
			Amount:      format.Money(invoice.Currency, item.Amount),
		})
	}

	bank := profile.BankDetails.Data()
	applyNotes(&data, &bank, invoice.Notes)
	data.BankDetails = bankLines(bank)

	return data
}

// applyNotes overlays the editor's auxiliary fields. Notes that are not an
// auxiliary record are printed as a payment note.
func applyNotes(data *pdf.InvoiceData, bank *profiledomain.BankDetails, notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	var aux draftdomain.Auxiliary
	if err := json.Unmarshal([]byte(notes), &aux); err != nil {
		data.PaymentNote = notes
		return
	}

	data.Developer = aux.DeveloperName
	data.PaymentNote = strings.TrimSpace(strings.Join([]string{aux.PaymentNote, aux.Text}, " "))
	if aux.LogoRef != "" {
		data.LogoPath = aux.LogoRef
	}
	if aux.QRRef != "" {
		data.QRPath = aux.QRRef
	}
	for _, d := range aux.ProjectDetails {
		if strings.TrimSpace(d.Value) == "" {
			continue
		}
		data.ProjectDetails = append(data.ProjectDetails, pdf.Detail{Label: d.Key, Value: d.Value})
	}
	if aux.Bank != nil {
		*bank = profiledomain.BankDetails{
			AccountName:   aux.Bank.AccountName,
			AccountNumber: aux.Bank.AccountNumber,
			BankName:      aux.Bank.BankName,
			IBAN:          aux.Bank.IBAN,
			SWIFT:         aux.Bank.SWIFT,
		}
	}
}

func bankLines(b profiledomain.BankDetails) []pdf.Detail {
	if b.Empty() {
		return nil
	}
	var out []pdf.Detail
	add := func(label, value string) {
		if value != "" {
			out = append(out, pdf.Detail{Label: label, Value: value})
		}
	}
	add("Bank", b.BankName)
	add("Account name", b.AccountName)
	add("Account number", b.AccountNumber)
	add("IBAN", b.IBAN)
	add("SWIFT", b.SWIFT)
	add("Routing number", b.RoutingNumber)
	return out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
