package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/cookie"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
)

// errorStatus maps domain errors to an HTTP status and client message.
func errorStatus(err error) (int, string) {
	var (
		requestErr    *RequestError
		orderInvalid  *order.ValidationError
		cookieInvalid *cookie.ValidationError
		reviewInvalid *review.ValidationError
		transition    *order.TransitionError
	)
	switch {
	case errors.As(err, &requestErr):
		return http.StatusBadRequest, requestErr.Error()
	case errors.As(err, &orderInvalid):
		return http.StatusBadRequest, orderInvalid.Error()
	case errors.As(err, &cookieInvalid):
		return http.StatusBadRequest, cookieInvalid.Error()
	case errors.As(err, &reviewInvalid):
		return http.StatusBadRequest, reviewInvalid.Error()
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, order.ErrNotFound.Error()
	case errors.Is(err, cookie.ErrNotFound):
		return http.StatusNotFound, cookie.ErrNotFound.Error()
	case errors.Is(err, review.ErrNotFound):
		return http.StatusNotFound, review.ErrNotFound.Error()
	case errors.As(err, &transition):
		return http.StatusConflict, transition.Error()
	case errors.Is(err, cookie.ErrDuplicateName):
		return http.StatusConflict, cookie.ErrDuplicateName.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError responds with {"code","message"}. Unexpected errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := errorStatus(err)
	if code >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeStatus(w, code, msg)
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(code)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

func badRequest(msg string) error {
	return &RequestError{Msg: msg}
}
