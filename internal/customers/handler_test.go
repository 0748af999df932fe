package customers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(newMockRepository())).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const budiJSON = `{"name":"Budi","meterNumber":"KWH001","address":"Jl. A","voltageTier":"900","phone":"0800"}`

func TestHandler_CreateAndGet(t *testing.T) {
	h := newTestRouter()

	rec := do(h, http.MethodPost, "/customers", budiJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/customers/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Budi", got["name"])
	assert.Equal(t, "KWH001", got["meterNumber"])
	assert.Equal(t, "900", got["voltageTier"])
}

func TestHandler_Create_DuplicateMeter(t *testing.T) {
	h := newTestRouter()
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/customers", budiJSON).Code)

	rec := do(h, http.MethodPost, "/customers", budiJSON)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"error":{"message":"validation error","details":[{"field":"meterNumber","message":"unique"}]}}`,
		rec.Body.String())
}

func TestHandler_Create_Validation(t *testing.T) {
	h := newTestRouter()

	rec := do(h, http.MethodPost, "/customers", `{"meterNumber":"KWH001","address":"x","phone":"1"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"name"`)
}

func TestHandler_Create_BlankFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"blank name", `{"name":"   ","meterNumber":"KWH001","address":"Jl. A","phone":"0800"}`, "name"},
		{"blank meter", `{"name":"Budi","meterNumber":"  ","address":"Jl. A","phone":"0800"}`, "meterNumber"},
		{"blank address", `{"name":"Budi","meterNumber":"KWH001","address":"\t","phone":"0800"}`, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter()

			rec := do(h, http.MethodPost, "/customers", tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"field":"`+tt.field+`"`)
			assert.Contains(t, rec.Body.String(), `"message":"notblank"`)
		})
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h := newTestRouter()
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/customers", budiJSON).Code)

	rec := do(h, http.MethodPut, "/customers/1",
		`{"name":"Budi S","meterNumber":"KWH001","address":"Jl. B","voltageTier":"9999","phone":"0800"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"voltageTier":"1300"`)

	rec = do(h, http.MethodDelete, "/customers/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/customers/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(h, http.MethodGet, "/customers/x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_List(t *testing.T) {
	h := newTestRouter()

	rec := do(h, http.MethodGet, "/customers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
