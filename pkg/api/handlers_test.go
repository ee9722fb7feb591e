package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliolib/gocdf/pkg/cdf"
	"github.com/heliolib/gocdf/pkg/codec"
)

// testMetrics is shared by every test in the package: the collectors live on
// the default Prometheus registry, so NewMetrics can only run once per process.
var testMetrics = NewMetrics()

// ms per day in CDF_EPOCH units, fixture records start at 2020-01-01.
const (
	epochDay  = 86400000.0
	epoch2020 = 63745056000000.0
)

// newTestRouter writes a small file, opens it and wires the full router.
func newTestRouter(t *testing.T, config ServerConfig) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.cdf")

	w, err := cdf.NewWriter(path, cdf.WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteGlobalAttr("TITLE", "API fixture"))
	require.NoError(t, w.WriteGlobalAttr("Notes", "first", "second"))
	require.NoError(t, w.WriteVar(cdf.VarSpec{Name: "Epoch", DataType: codec.Epoch},
		[]float64{epoch2020, epoch2020 + epochDay, epoch2020 + 2*epochDay, epoch2020 + 3*epochDay}))
	require.NoError(t, w.WriteVar(cdf.VarSpec{Name: "counts", DataType: codec.Int4},
		[]int32{10, 20, 30, 40}))
	require.NoError(t, w.WriteVar(cdf.VarSpec{Name: "flags", DataType: codec.UInt1},
		[]uint8{0, 255}))
	require.NoError(t, w.WriteVarAttr("DEPEND_0", "counts", "Epoch"))
	require.NoError(t, w.WriteVarAttr("UNITS", "counts", "1/s"))
	require.NoError(t, w.Close())

	r, err := cdf.Open(context.Background(), path, cdf.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return NewRouter(r, config, testMetrics)
}

// doGet drives the router and decodes the response envelope.
func doGet(t *testing.T, h http.Handler, target string, headers map[string]string) (int, APIResponse) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

// decodeData re-marshals the untyped envelope payload into out.
func decodeData(t *testing.T, data interface{}, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)

	var status map[string]string
	decodeData(t, resp.Data, &status)
	assert.Equal(t, "healthy", status["status"])
}

func TestRouter_Info(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/info", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var info map[string]interface{}
	decodeData(t, resp.Data, &info)
	assert.Equal(t, "3.9.0", info["version"])
	assert.Equal(t, float64(3), info["z_vars"])
	assert.Equal(t, float64(0), info["r_vars"])
	assert.Equal(t, true, info["checksum"])
	assert.Equal(t, false, info["compressed"])
	assert.NotEmpty(t, info["path"])
}

func TestRouter_ListVariables(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var vars []VariableSummary
	decodeData(t, resp.Data, &vars)
	require.Len(t, vars, 3)

	byName := make(map[string]VariableSummary, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}
	assert.Equal(t, "CDF_EPOCH", byName["Epoch"].DataType)
	assert.Equal(t, 4, byName["Epoch"].Records)
	assert.Equal(t, "CDF_INT4", byName["counts"].DataType)
	assert.True(t, byName["counts"].RecVary)
	assert.Empty(t, byName["counts"].Sparse)
}

func TestRouter_GetVariable(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/counts", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var detail VariableDetail
	decodeData(t, resp.Data, &detail)
	assert.Equal(t, "counts", detail.Name)
	assert.Equal(t, "CDF_INT4", detail.DataType)
	assert.Equal(t, 4, detail.Records)
	assert.Equal(t, 1, detail.NumElems)
	assert.Equal(t, "Epoch", detail.Attributes["DEPEND_0"])
	assert.Equal(t, "1/s", detail.Attributes["UNITS"])
}

func TestRouter_GetVariable_NotFound(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestRouter_GetData(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/counts/data", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var data DataResponse
	decodeData(t, resp.Data, &data)
	assert.Equal(t, "counts", data.Name)
	assert.Equal(t, "CDF_INT4", data.DataType)
	assert.Equal(t, 0, data.FirstRecord)
	assert.Equal(t, []int{4}, data.Shape)
	assert.Equal(t, []interface{}{10.0, 20.0, 30.0, 40.0}, data.Values)
}

func TestRouter_GetData_ByteValues(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/flags/data", nil)
	require.Equal(t, http.StatusOK, code)

	var data DataResponse
	decodeData(t, resp.Data, &data)
	assert.Equal(t, []interface{}{0.0, 255.0}, data.Values)
}

func TestRouter_GetData_RecordRange(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/counts/data?first=1&last=2", nil)
	require.Equal(t, http.StatusOK, code)

	var data DataResponse
	decodeData(t, resp.Data, &data)
	assert.Equal(t, 1, data.FirstRecord)
	assert.Equal(t, []interface{}{20.0, 30.0}, data.Values)
}

func TestRouter_GetData_TimeRange(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h,
		"/api/v1/variables/counts/data?start=2020-01-02T00:00:00.000&end=2020-01-03T00:00:00.000", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var data DataResponse
	decodeData(t, resp.Data, &data)
	assert.Equal(t, 1, data.FirstRecord)
	assert.Equal(t, []interface{}{20.0, 30.0}, data.Values)
}

func TestRouter_GetData_TimeRangeExplicitEpoch(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	// flags carries no DEPEND_0, so the epoch variable is named in the
	// query instead.
	code, resp := doGet(t, h,
		"/api/v1/variables/flags/data?start=2020-01-02T00:00:00.000&epoch=Epoch", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)

	var data DataResponse
	decodeData(t, resp.Data, &data)
	assert.Equal(t, 1, data.FirstRecord)
	assert.Equal(t, []interface{}{255.0}, data.Values)
}

func TestRouter_GetData_ISO8601(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/Epoch/data?iso8601=1&first=0&last=1", nil)
	require.Equal(t, http.StatusOK, code)

	var data DataResponse
	decodeData(t, resp.Data, &data)
	assert.Equal(t, []interface{}{"2020-01-01T00:00:00.000", "2020-01-02T00:00:00.000"}, data.Values)
}

func TestRouter_GetData_BadRequests(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	tests := []struct {
		name   string
		target string
	}{
		{"both range styles", "/api/v1/variables/counts/data?first=0&last=1&start=2020-01-02T00:00:00.000"},
		{"non-numeric first", "/api/v1/variables/counts/data?first=x&last=2"},
		{"missing last", "/api/v1/variables/counts/data?first=1"},
		{"malformed start", "/api/v1/variables/counts/data?start=notatime"},
		{"inverted records", "/api/v1/variables/counts/data?first=3&last=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := doGet(t, h, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRouter_GetData_NotFound(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/variables/missing/data", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
}

func TestRouter_ListAttributes(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	code, resp := doGet(t, h, "/api/v1/attributes", nil)
	require.Equal(t, http.StatusOK, code)

	var atts map[string][]interface{}
	decodeData(t, resp.Data, &atts)
	require.Len(t, atts, 2)
	assert.Equal(t, []interface{}{"API fixture"}, atts["TITLE"])
	assert.Equal(t, []interface{}{"first", "second"}, atts["Notes"])
}

func TestRouter_APIKey(t *testing.T) {
	h := newTestRouter(t, ServerConfig{APIKey: "secret"})

	code, resp := doGet(t, h, "/api/v1/info", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)

	code, _ = doGet(t, h, "/api/v1/info", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp = doGet(t, h, "/api/v1/info", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	// Probes and scrapers stay unauthenticated.
	code, _ = doGet(t, h, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, ServerConfig{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gocdf_")
}
