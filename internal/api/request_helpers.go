package api

import (
	"net/http"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// principalFromRequest returns the principal placed in the context by the
// auth middleware, or nil on an unauthenticated route.
func principalFromRequest(r *http.Request) *domain.Principal {
	p, _ := shared.PrincipalFromContext(r.Context())
	return p
}

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// pathUUIDOrError is getPathUUID that writes the 400 response itself.
func pathUUIDOrError(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid path parameter",
			"param_name", paramName,
			"value", chi.URLParam(r, paramName))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate reads the JSON body into v and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// listParams returns the raw filter, sort and paging parameters of r.
func listParams(r *http.Request) query.Params {
	return query.ParseParams(r.URL.Query())
}

// respondWithList writes one page of a list result.
func respondWithList[T any](w http.ResponseWriter, r *http.Request, message string, items any, result *service.ListResult[T]) {
	window := shared.ListWindow{Total: result.Total}
	if result.Page != nil {
		window.Offset = result.Page.Offset
		window.Limit = result.Page.Limit
	}
	shared.RespondWithList(w, r, message, items, window)
}
