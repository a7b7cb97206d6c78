package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/quotations"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/users"
)

// Handler renders documents as PDF through Gotenberg.
type Handler struct {
	logger     *slog.Logger
	client     *Client
	renderer   *Renderer
	quotations *quotations.Service
	invoices   *invoices.Service
	statements *statements.Service
	users      users.Repository
}

func NewHandler(logger *slog.Logger, client *Client, renderer *Renderer,
	quotationSvc *quotations.Service, invoiceSvc *invoices.Service,
	statementSvc *statements.Service, userRepo users.Repository) *Handler {
	return &Handler{
		logger:     logger,
		client:     client,
		renderer:   renderer,
		quotations: quotationSvc,
		invoices:   invoiceSvc,
		statements: statementSvc,
		users:      userRepo,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report/ping", h.Ping)
	r.Get("/report/quotations/{id}/pdf", h.QuotationPDF)
	r.Get("/report/invoices/{id}/pdf", h.InvoicePDF)
	r.Get("/report/statements/{id}/pdf", h.StatementPDF)
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Renderer Unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) QuotationPDF(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	q, err := h.quotations.Get(r.Context(), scope, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	html, err := h.renderer.QuotationHTML(q, h.letterhead(r.Context(), q.CreatedBy))
	if err != nil {
		h.renderFailed(w, err)
		return
	}
	h.servePDF(r.Context(), w, html, q.DocNumber)
}

func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	inv, err := h.invoices.Get(r.Context(), scope, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	html, err := h.renderer.InvoiceHTML(inv, h.letterhead(r.Context(), inv.CreatedBy))
	if err != nil {
		h.renderFailed(w, err)
		return
	}
	h.servePDF(r.Context(), w, html, inv.DocNumber)
}

func (h *Handler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	st, err := h.statements.Get(r.Context(), scope, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	html, err := h.renderer.StatementHTML(st, h.letterhead(r.Context(), st.CreatedBy))
	if err != nil {
		h.renderFailed(w, err)
		return
	}
	h.servePDF(r.Context(), w, html, st.DocNumber)
}

// letterhead resolves the issuing user's business details. Documents still
// render when the account is gone or not onboarded, just with a blank header.
func (h *Handler) letterhead(ctx context.Context, createdBy int64) Business {
	u, err := h.users.Get(ctx, createdBy)
	if err != nil {
		return Business{}
	}
	biz := Business{Name: u.Name}
	if u.BusinessName != nil {
		biz.Name = *u.BusinessName
	}
	if u.BusinessAddress != nil {
		biz.Address = *u.BusinessAddress
	}
	if u.VATNumber != nil {
		biz.VATNumber = *u.VATNumber
	}
	return biz
}

func (h *Handler) servePDF(ctx context.Context, w http.ResponseWriter, html, docNumber string) {
	pdf, err := h.client.RenderHTML(ctx, html)
	if err != nil {
		h.logger.Error("render pdf", slog.String("doc", docNumber), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", docNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) renderFailed(w http.ResponseWriter, err error) {
	h.logger.Error("render document html", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quotations.ErrNotFound),
		errors.Is(err, invoices.ErrNotFound),
		errors.Is(err, statements.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		httpx.RespondError(w, err)
	}
}
