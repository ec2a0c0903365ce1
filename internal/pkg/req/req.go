/*
Package req binds status API requests: JSON bodies and required query parameters.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"roombot/internal/pkg/errs"
)

// MaxJSONBodySize bounds the body accepted by BindJSON.
const MaxJSONBodySize int64 = 64 << 10

// BindJSON decodes the JSON request body into dst. Unknown fields and trailing content are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrExtraContentInBody)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}
	return nil
}

// Query returns the trimmed query parameter name, or ErrMissingArgument when it is empty.
func Query(r *http.Request, name string) (string, *errs.CustomError) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return "", errs.NewError(errs.ErrMissingArgument, name)
	}
	return value, nil
}
