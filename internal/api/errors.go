package api

import (
	"errors"
	"net/http"

	"formquery/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var syntax *domain.SyntaxError
	var unresolved *domain.UnresolvedReferenceError
	var arity *domain.ArityMismatchError
	var iteration *domain.IterationLimitError
	var persistence *domain.PersistenceError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &syntax):
		return http.StatusBadRequest
	case errors.As(err, &unresolved):
		return http.StatusBadRequest
	case errors.As(err, &arity):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &iteration):
		return http.StatusUnprocessableEntity
	case errors.As(err, &persistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
