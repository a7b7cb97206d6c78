package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/money"
	"github.com/ledgerline/ledgerline/internal/quotations"
	"github.com/ledgerline/ledgerline/internal/statements"
)

//go:embed templates/*.html
var templateFS embed.FS

// Business carries the issuing account's letterhead details, captured during
// onboarding.
type Business struct {
	Name      string
	Address   string
	VATNumber string
}

type lineView struct {
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
}

type documentView struct {
	DocNumber     string
	DocDate       string
	DueDate       string
	Status        string
	Business      Business
	ClientName    string
	ClientCompany string
	ClientEmail   string
	Items         []lineView
	SubTotal      string
	Discount      string
	VATAmount     string
	GrandTotal    string
	TotalPaid     string
	Balance       string
	Notes         string
}

type statementLineView struct {
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	GrandTotal    string
	TotalPaid     string
	Balance       string
}

type statementView struct {
	DocNumber      string
	PeriodStart    string
	PeriodEnd      string
	Business       Business
	ClientName     string
	Lines          []statementLineView
	TotalInvoiced  string
	TotalPaid      string
	ClosingBalance string
}

// Renderer turns documents into printable HTML.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse report templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) QuotationHTML(q *quotations.Quotation, biz Business) (string, error) {
	view := documentView{
		DocNumber:   q.DocNumber,
		DocDate:     money.FormatDate(q.QuotationDate),
		Status:      string(q.Status),
		Business:    biz,
		ClientName:  q.ClientName,
		ClientEmail: q.ClientEmail,
		SubTotal:    money.Format(q.SubTotal, q.Currency),
		Discount:    money.Format(q.Discount, q.Currency),
		VATAmount:   money.Format(q.VATAmount, q.Currency),
		GrandTotal:  money.Format(q.GrandTotal, q.Currency),
	}
	if q.ClientCompany != nil {
		view.ClientCompany = *q.ClientCompany
	}
	if q.Notes != nil {
		view.Notes = *q.Notes
	}
	for _, item := range q.Items {
		view.Items = append(view.Items, lineView{
			Description: item.Description,
			Quantity:    formatQuantity(item.Quantity),
			UnitPrice:   money.Format(item.UnitPrice, q.Currency),
			LineTotal:   money.Format(item.LineTotal, q.Currency),
		})
	}
	return r.execute("quotation.html", view)
}

func (r *Renderer) InvoiceHTML(inv *invoices.Invoice, biz Business) (string, error) {
	view := documentView{
		DocNumber:   inv.DocNumber,
		DocDate:     money.FormatDate(inv.InvoiceDate),
		DueDate:     money.FormatDate(inv.DueDate),
		Status:      string(inv.Status),
		Business:    biz,
		ClientName:  inv.ClientName,
		ClientEmail: inv.ClientEmail,
		SubTotal:    money.Format(inv.SubTotal, inv.Currency),
		Discount:    money.Format(inv.Discount, inv.Currency),
		VATAmount:   money.Format(inv.VATAmount, inv.Currency),
		GrandTotal:  money.Format(inv.GrandTotal, inv.Currency),
		TotalPaid:   money.Format(inv.TotalPaid, inv.Currency),
		Balance:     money.Format(inv.Balance(), inv.Currency),
	}
	if inv.ClientCompany != nil {
		view.ClientCompany = *inv.ClientCompany
	}
	if inv.Notes != nil {
		view.Notes = *inv.Notes
	}
	for _, item := range inv.Items {
		view.Items = append(view.Items, lineView{
			Description: item.Description,
			Quantity:    formatQuantity(item.Quantity),
			UnitPrice:   money.Format(item.UnitPrice, inv.Currency),
			LineTotal:   money.Format(item.LineTotal, inv.Currency),
		})
	}
	return r.execute("invoice.html", view)
}

func (r *Renderer) StatementHTML(st *statements.Statement, biz Business) (string, error) {
	view := statementView{
		DocNumber:      st.DocNumber,
		PeriodStart:    money.FormatDate(st.PeriodStart),
		PeriodEnd:      money.FormatDate(st.PeriodEnd),
		Business:       biz,
		ClientName:     st.ClientName,
		TotalInvoiced:  money.Format(st.TotalInvoiced, st.Currency),
		TotalPaid:      money.Format(st.TotalPaid, st.Currency),
		ClosingBalance: money.Format(st.ClosingBalance, st.Currency),
	}
	for _, line := range st.Lines {
		view.Lines = append(view.Lines, statementLineView{
			InvoiceNumber: line.InvoiceNumber,
			InvoiceDate:   money.FormatDate(line.InvoiceDate),
			DueDate:       money.FormatDate(line.DueDate),
			GrandTotal:    money.Format(line.GrandTotal, st.Currency),
			TotalPaid:     money.Format(line.TotalPaid, st.Currency),
			Balance:       money.Format(line.Balance, st.Currency),
		})
	}
	return r.execute("statement.html", view)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}
