package resp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"roombot/internal/pkg/errs"
)

func TestRespondSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	RespondSuccess(w, httptest.NewRequest(http.MethodGet, "/", nil), map[string]int{"rooms": 2})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"rooms":2}}`, w.Body.String())
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondError(w, httptest.NewRequest(http.MethodGet, "/", nil), errs.NewError(errs.ErrPatternExists, "spam"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"code":2402,"message":"*spam* is already in list."}`, w.Body.String())

	w = httptest.NewRecorder()
	RespondError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRespondJSONEncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]any{"bad": func() {}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
