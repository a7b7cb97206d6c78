package compat

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/products"
	"github.com/ledgerline/ledgerline/internal/quotations"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler exposes the read-only legacy surface under /compat/v1. Writes go
// through the native API only.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/compat/v1", func(r chi.Router) {
		r.Get("/clients", h.ListClients)
		r.Get("/clients/{id}", h.ShowClient)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.ShowProduct)
		r.Get("/quotations", h.ListQuotations)
		r.Get("/quotations/{id}", h.ShowQuotation)
		r.Get("/invoices", h.ListInvoices)
		r.Get("/invoices/{id}", h.ShowInvoice)
	})
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req := clients.ListClientsRequest{Search: r.URL.Query().Get("search")}
	req.Limit, req.Offset = pagination(r)
	docs, total, err := h.service.ListClients(r.Context(), scope, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": docs, "total": total})
}

func (h *Handler) ShowClient(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, func(scope shared.Scope, id int64) (map[string]any, error) {
		return h.service.Client(r.Context(), scope, id)
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req := products.ListProductsRequest{Search: r.URL.Query().Get("search")}
	req.Limit, req.Offset = pagination(r)
	docs, total, err := h.service.ListProducts(r.Context(), scope, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": docs, "total": total})
}

func (h *Handler) ShowProduct(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, func(scope shared.Scope, id int64) (map[string]any, error) {
		return h.service.Product(r.Context(), scope, id)
	})
}

func (h *Handler) ListQuotations(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req := quotations.ListQuotationsRequest{Status: r.URL.Query().Get("status")}
	req.Limit, req.Offset = pagination(r)
	docs, total, err := h.service.ListQuotations(r.Context(), scope, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotations": docs, "total": total})
}

func (h *Handler) ShowQuotation(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, func(scope shared.Scope, id int64) (map[string]any, error) {
		return h.service.Quotation(r.Context(), scope, id)
	})
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req := invoices.ListInvoicesRequest{Status: r.URL.Query().Get("status")}
	req.Limit, req.Offset = pagination(r)
	docs, total, err := h.service.ListInvoices(r.Context(), scope, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": docs, "total": total})
}

func (h *Handler) ShowInvoice(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, func(scope shared.Scope, id int64) (map[string]any, error) {
		return h.service.Invoice(r.Context(), scope, id)
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request, fetch func(shared.Scope, int64) (map[string]any, error)) {
	scope, ok := shared.ScopeFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	doc, err := fetch(scope, id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clients.ErrNotFound),
		errors.Is(err, products.ErrNotFound),
		errors.Is(err, quotations.ErrNotFound),
		errors.Is(err, invoices.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("legacy read failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
