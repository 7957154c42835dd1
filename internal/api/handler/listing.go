// Package handler contains the HTTP handlers. Handlers stay thin:
// decode, validate required fields, call a service, map errors to the
// response envelope.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/api/response"
	"github.com/propscribe/propscribe/internal/listing"
	"github.com/propscribe/propscribe/internal/location"
)

// ListingGenerator defines the interface the generate handler depends on.
type ListingGenerator interface {
	Generate(ctx context.Context, accountID, userID string, params listing.Params) (string, error)
}

// NewGenerateListingHandler returns the handler for
// POST /api/v1/listings/description.
func NewGenerateListingHandler(svc ListingGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}

		var params listing.Params
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if missing := missingListingFields(params); len(missing) > 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Missing or invalid required fields", map[string]any{"fields": missing})
			return
		}

		text, err := svc.Generate(r.Context(), identity.AccountID, identity.UserID, params)
		if err != nil {
			writeGenerateError(w, err)
			return
		}

		response.JSON(w, map[string]string{"description": text})
	}
}

func missingListingFields(params listing.Params) []string {
	var missing []string
	if params.Postcode == "" {
		missing = append(missing, "postcode")
	}
	if params.PropertyType == "" {
		missing = append(missing, "property_type")
	}
	if params.Floors < 1 {
		missing = append(missing, "floors")
	}
	if params.Bedrooms < 1 {
		missing = append(missing, "bedrooms")
	}
	if params.Bathrooms < 1 {
		missing = append(missing, "bathrooms")
	}
	return missing
}

func writeGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, location.ErrInvalidPostcode):
		response.Error(w, http.StatusBadRequest, "INVALID_POSTCODE",
			"The postcode does not resolve to a location", nil)
	case errors.Is(err, location.ErrPostcodesUnreachable),
		errors.Is(err, location.ErrPostcodesQueryError):
		response.Error(w, http.StatusBadGateway, "GEOCODE_FAILED",
			"The geocoding service is not available", nil)
	case errors.Is(err, location.ErrPlacesUnreachable),
		errors.Is(err, location.ErrPlacesQueryError):
		response.Error(w, http.StatusBadGateway, "ENRICHMENT_FAILED",
			"The place lookup service is not available", nil)
	case errors.Is(err, listing.ErrGenerationFailed):
		response.Error(w, http.StatusBadGateway, "GENERATION_FAILED",
			"The description could not be generated", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
