package graph

import (
	"errors"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// Error is a resolver error carrying a machine readable code in the
// "extensions" member of the GraphQL error.
type Error struct {
	Message string
	Code    string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

// Extensions implements the graphql-go ResolverError interface.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return &Error{Message: err.Error(), Code: "VALIDATION", Fields: verr.Fields}
	case errors.Is(err, services.ErrInvalidCredentials):
		return &Error{Message: err.Error(), Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, services.ErrInvalidToken):
		return &Error{Message: err.Error(), Code: "INVALID_TOKEN"}
	case errors.Is(err, services.ErrUnauthenticated):
		return &Error{Message: err.Error(), Code: "UNAUTHENTICATED"}
	case errors.Is(err, services.ErrForbidden):
		return &Error{Message: err.Error(), Code: "FORBIDDEN"}
	case errors.Is(err, services.ErrNotFound):
		return &Error{Message: err.Error(), Code: "NOT_FOUND"}
	default:
		utils.Sugar.Errorw("graphql resolver failed", "err", err)
		return &Error{Message: "internal server error", Code: "INTERNAL"}
	}
}
