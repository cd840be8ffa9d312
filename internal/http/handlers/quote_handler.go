package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"etoile/internal/ai"
	"etoile/internal/maps"
	"etoile/internal/modules/catalog"
	"etoile/internal/modules/orgconfig"
	"etoile/internal/modules/pricing"
	"etoile/internal/modules/profitability"
	"etoile/internal/types"
)

// BundleSource loads an organization's pricing bundle (cache or store).
type BundleSource interface {
	LoadBundle(ctx context.Context, orgID types.ID) (pricing.Bundle, error)
}

// ContactSource resolves the requesting contact and its contract.
type ContactSource interface {
	LoadContact(ctx context.Context, id types.ID) (catalog.Contact, error)
}

// QuoteRepository persists quotes so they can be reopened and overridden.
type QuoteRepository interface {
	SaveQuote(ctx context.Context, q *orgconfig.Quote) error
	GetQuote(ctx context.Context, id types.ID) (*orgconfig.Quote, error)
}

// RouteEstimator fills in distance and duration when the caller sends only
// coordinates.
type RouteEstimator interface {
	DrivingEstimate(ctx context.Context, origin, destination types.Point) (maps.Estimate, error)
}

// Geocoder resolves free-text addresses into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type QuoteHandler struct {
	bundles   BundleSource
	contacts  ContactSource
	quotes    QuoteRepository
	routes    RouteEstimator    // optional
	geocoder  Geocoder          // optional
	explainer ai.QuoteExplainer // optional
}

func NewQuoteHandler(bundles BundleSource, contacts ContactSource, quotes QuoteRepository) *QuoteHandler {
	return &QuoteHandler{bundles: bundles, contacts: contacts, quotes: quotes}
}

// WithRoutes enables distance/duration backfill from the routing API.
func (h *QuoteHandler) WithRoutes(r RouteEstimator) *QuoteHandler {
	h.routes = r
	return h
}

// WithGeocoder enables address-based pickup and dropoff.
func (h *QuoteHandler) WithGeocoder(g Geocoder) *QuoteHandler {
	h.geocoder = g
	return h
}

// WithExplainer enables the explain endpoint.
func (h *QuoteHandler) WithExplainer(e ai.QuoteExplainer) *QuoteHandler {
	h.explainer = e
	return h
}

type createQuoteReq struct {
	OrganizationID types.ID `json:"organizationId"`
	// Free-text alternatives to the coordinate fields.
	PickupAddress  string `json:"pickupAddress,omitempty"`
	DropoffAddress string `json:"dropoffAddress,omitempty"`
	pricing.PricingRequest
}

type quoteResponse struct {
	QuoteID types.ID              `json:"quoteId"`
	Result  pricing.PricingResult `json:"result"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req createQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrganizationID == "" || req.ContactID == "" {
		writeError(c, http.StatusBadRequest, "missing organizationId or contactId")
		return
	}
	if !req.TripType.Valid() {
		writeError(c, http.StatusBadRequest, "invalid tripType")
		return
	}

	ctx := c.Request.Context()
	if err := h.resolveGeography(ctx, &req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	bundle, err := h.bundles.LoadBundle(ctx, req.OrganizationID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	contact, err := h.contacts.LoadContact(ctx, req.ContactID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	result := pricing.Calculate(req.PricingRequest, contact, bundle)

	now := time.Now().UTC()
	quote := &orgconfig.Quote{
		ID:             types.ID(uuid.NewString()),
		OrganizationID: req.OrganizationID,
		ContactID:      req.ContactID,
		Request:        req.PricingRequest,
		Result:         result,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.quotes.SaveQuote(ctx, quote); err != nil {
		writeStoreError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, quoteResponse{QuoteID: quote.ID, Result: result})
}

// resolveGeography geocodes addresses and backfills route estimates so the
// engine always receives coordinates, distance, and duration.
func (h *QuoteHandler) resolveGeography(ctx context.Context, req *createQuoteReq) error {
	if h.geocoder != nil {
		if req.PickupAddress != "" && req.Pickup == (types.Point{}) {
			p, err := h.geocoder.Geocode(ctx, req.PickupAddress)
			if err != nil {
				return err
			}
			req.Pickup = p
		}
		if req.DropoffAddress != "" && req.Dropoff == (types.Point{}) {
			p, err := h.geocoder.Geocode(ctx, req.DropoffAddress)
			if err != nil {
				return err
			}
			req.Dropoff = p
		}
	}

	needsEstimate := req.EstimatedDistanceKm <= 0 && req.EstimatedDurationMinutes <= 0 &&
		req.TripType != types.TripDispo
	if needsEstimate && h.routes != nil {
		est, err := h.routes.DrivingEstimate(ctx, req.Pickup, req.Dropoff)
		if err != nil {
			return err
		}
		req.EstimatedDistanceKm = est.DistanceKm
		req.EstimatedDurationMinutes = est.DurationMinutes
	}
	return nil
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing quote id")
		return
	}
	q, err := h.quotes.GetQuote(c.Request.Context(), types.ID(id))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

type overrideReq struct {
	Price  float64 `json:"price"`
	Reason string  `json:"reason"`
}

type overrideResponse struct {
	QuoteID types.ID                    `json:"quoteId"`
	Check   profitability.OverrideCheck `json:"check"`
	Result  *pricing.PricingResult      `json:"result,omitempty"`
}

func (h *QuoteHandler) Override(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing quote id")
		return
	}
	var req overrideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := c.Request.Context()
	q, err := h.quotes.GetQuote(ctx, types.ID(id))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	bundle, err := h.bundles.LoadBundle(ctx, q.OrganizationID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	next, check := pricing.ApplyOverride(q.Result, req.Price, req.Reason, bundle.Settings.Thresholds)
	if !check.Allowed {
		writeJSON(c, http.StatusUnprocessableEntity, overrideResponse{QuoteID: q.ID, Check: check})
		return
	}

	q.Result = next
	q.UpdatedAt = time.Now().UTC()
	if err := h.quotes.SaveQuote(ctx, q); err != nil {
		writeStoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, overrideResponse{QuoteID: q.ID, Check: check, Result: &next})
}

type explainResponse struct {
	QuoteID     types.ID `json:"quoteId"`
	Explanation string   `json:"explanation"`
}

func (h *QuoteHandler) Explain(c *gin.Context) {
	if h.explainer == nil {
		writeError(c, http.StatusServiceUnavailable, "explanations not configured")
		return
	}
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing quote id")
		return
	}
	q, err := h.quotes.GetQuote(c.Request.Context(), types.ID(id))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	text, err := h.explainer.ExplainQuote(c.Request.Context(), q.Result)
	if err != nil {
		writeError(c, http.StatusBadGateway, "explanation failed")
		return
	}
	writeJSON(c, http.StatusOK, explainResponse{QuoteID: q.ID, Explanation: text})
}
