package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
)

// httpStatusForDomainError maps errors raised while handling the request
// itself. Missing or malformed credentials are a bad request, a wrong token
// is forbidden.
func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatAuth:
		return http.StatusBadRequest, true
	case core.ErrCatForbidden:
		return http.StatusForbidden, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatRateLimit:
		return http.StatusTooManyRequests, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	case core.ErrCatNetwork, core.ErrCatExternal:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}

// httpStatusForUpstreamError maps failures of the model call. Whatever went
// wrong upstream, the relay acted as a gateway.
func httpStatusForUpstreamError(err error) int {
	if core.IsCategory(err, core.ErrCatTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		respondDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	var domErr *core.DomainError
	errors.As(err, &domErr)
	respondDetail(w, status, domErr.Message)
}
