package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tiered-discounts/internal/cart"
	"github.com/noah-isme/tiered-discounts/internal/common"
	"github.com/noah-isme/tiered-discounts/internal/obs"
)

// Handler exposes the discount generation endpoint.
type Handler struct {
	Resolver Resolver
	Validate *validator.Validate
	Log      zerolog.Logger
}

type generateRequest struct {
	Cart cart.Cart `json:"cart" validate:"required"`
}

// Generate handles POST /api/v1/discounts/generate. Only a malformed request
// envelope is rejected; malformed tier payloads inside the cart degrade to
// skipped lines per the fail-soft contract.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart payload", validationDetails(err))
			return
		}
	}

	start := time.Now()
	batch := Generate(r.Context(), req.Cart, h.Resolver)
	if obs.GenerateLatency != nil {
		obs.GenerateLatency.Observe(obs.DurationMillis(time.Since(start)))
	}

	result := "empty"
	if len(batch.Operations) > 0 {
		result = "discounted"
	}
	if obs.DiscountBatchesTotal != nil {
		obs.DiscountBatchesTotal.WithLabelValues(result).Inc()
	}
	h.Log.Debug().
		Int("lines", len(req.Cart.Lines)).
		Str("result", result).
		Msg("discounts generated")

	common.JSON(w, http.StatusOK, batch)
}

func validationDetails(err error) any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]map[string]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, map[string]string{
			"field": fe.Namespace(),
			"rule":  fe.Tag(),
		})
	}
	return details
}
