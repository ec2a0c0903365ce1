/*
Package resp writes the status API's JSON envelope.

Every response carries a business code (0 on success, an errs code otherwise), a message and an
optional data payload.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"roombot/internal/pkg/errs"
)

// JSONResponse is the envelope of every status API response.
type JSONResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RespondJSON encodes payload with the given HTTP status. Encoding failures are logged on the
// request logger and answered with a plain 500.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("http_status", httpStatus).Msg("Error encoding JSON response")
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess answers 200 OK with data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Message: "success", Data: data})
}

// RespondCreated answers 201 Created with data.
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusCreated, JSONResponse{Message: "created", Data: data})
}

// RespondError answers with the code, message and HTTP status of customErr. A nil error is
// answered as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}
	RespondJSON(w, r, customErr.Status, JSONResponse{Code: customErr.Code, Message: customErr.Message})
}
