package catalog

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/tiered-discounts/internal/common"
)

// maxPayloadBytes bounds admin-submitted tier documents.
const maxPayloadBytes = 64 << 10

// Handler exposes administrative tier table management endpoints.
type Handler struct {
	Svc          *Service
	DefaultLimit int
	MaxLimit     int
}

// Upsert handles PUT /api/v1/admin/products/{productID}/tiers. The request
// body is the raw vendor tier document; it only has to be well-formed JSON.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "read payload", nil)
		return
	}
	if len(payload) > maxPayloadBytes {
		common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "tier payload too large", nil)
		return
	}
	if err := h.Svc.Upsert(r.Context(), productID, payload); err != nil {
		writeError(w, err, "store tier payload")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ProductTiers{
		ProductID: productID,
		Tiers:     payload,
	}})
}

// Get handles GET /api/v1/admin/products/{productID}/tiers.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	payload, found := h.Svc.TierPayload(r.Context(), productID)
	if !found {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "tier table not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ProductTiers{
		ProductID: productID,
		Tiers:     payload,
	}})
}

// Delete handles DELETE /api/v1/admin/products/{productID}/tiers.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), productID); err != nil {
		writeError(w, err, "delete tier payload")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/admin/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.defaultLimit())
	if max := h.maxLimit(); perPage > max {
		perPage = max
	}
	items, total, err := h.Svc.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err, "list tier tables")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

func (h *Handler) defaultLimit() int {
	if h.DefaultLimit <= 0 {
		return 20
	}
	return h.DefaultLimit
}

func (h *Handler) maxLimit() int {
	if h.MaxLimit <= 0 {
		return 100
	}
	return h.MaxLimit
}

// writeError maps store errors onto the shared error envelope. Sentinel
// errors carry their own status; anything else is an opaque internal failure.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		switch {
		case errors.Is(err, ErrNotFound):
			appErr = common.NewAppError("NOT_FOUND", "tier table not found", http.StatusNotFound, err)
		case errors.Is(err, ErrInvalidPayload):
			appErr = common.NewAppError("BAD_REQUEST", "tier payload is not valid JSON", http.StatusBadRequest, err)
		default:
			appErr = common.NewAppError("INTERNAL", fallback, http.StatusInternalServerError, err)
		}
	}
	common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "productID")
	productID, err := url.PathUnescape(raw)
	if err != nil || productID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id required", nil)
		return "", false
	}
	return productID, true
}
