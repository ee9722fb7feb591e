package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heliolib/gocdf/pkg/cdf"
	"github.com/heliolib/gocdf/pkg/epoch"
)

// Server holds the API server state
type Server struct {
	reader  FileReader
	config  ServerConfig
	metrics *Metrics
	epoch   *epoch.Codec
}

// NewServer creates a new API server
func NewServer(reader FileReader, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		reader:  reader,
		config:  config,
		metrics: metrics,
		epoch:   epoch.NewCodec(),
	}
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RecordHealthCheck(true)
	}
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleInfo returns the file-level summary
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := s.reader.Info()
	sendSuccess(w, map[string]interface{}{
		"path":       info.Path,
		"version":    info.Version,
		"encoding":   info.Encoding.String(),
		"majority":   info.Majority.String(),
		"checksum":   info.Checksum,
		"compressed": info.Compressed,
		"z_vars":     info.NumZVars,
		"r_vars":     info.NumRVars,
		"attributes": info.NumAttrs,
	})
}

// handleListVariables returns a summary of every variable
func (s *Server) handleListVariables(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	names := s.reader.Variables()
	out := make([]VariableSummary, 0, len(names))
	for _, name := range names {
		inq, err := s.reader.VarInq(name)
		if err != nil {
			s.recordRead("varinq", false, start)
			sendError(w, err.Error(), statusFor(err))
			return
		}
		out = append(out, summaryOf(inq))
	}
	s.recordRead("varinq", true, start)
	sendSuccess(w, out)
}

// handleGetVariable returns one variable's metadata and attributes
func (s *Server) handleGetVariable(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")
	inq, err := s.reader.VarInq(name)
	if err != nil {
		s.recordRead("varinq", false, start)
		sendError(w, err.Error(), statusFor(err))
		return
	}
	atts, err := s.reader.VarAttsGet(name)
	if err != nil {
		s.recordRead("varinq", false, start)
		sendError(w, err.Error(), statusFor(err))
		return
	}

	detail := VariableDetail{
		VariableSummary: summaryOf(inq),
		NumElems:        inq.NumElems,
		Pad:             jsonValue(inq.Pad),
		Attributes:      make(map[string]interface{}, len(atts)),
	}
	if inq.Compression != 0 {
		detail.Compression = inq.Compression.String()
	}
	for attName, e := range atts {
		detail.Attributes[attName] = jsonValues(e.Value)
	}
	s.recordRead("varinq", true, start)
	sendSuccess(w, detail)
}

// handleGetData returns a variable's values. Optional query parameters:
// first/last select a record range, start/end an epoch time range against
// the variable's DEPEND_0 (or the variable named by epoch=), iso8601=1
// renders epoch values as strings.
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	startedAt := time.Now()
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	var (
		res *cdf.Result
		err error
	)
	switch {
	case q.Get("start") != "" || q.Get("end") != "":
		if q.Get("first") != "" || q.Get("last") != "" {
			sendError(w, "use either first/last or start/end, not both", http.StatusBadRequest)
			return
		}
		var startBound, endBound interface{}
		if v := q.Get("start"); v != "" {
			if startBound, err = s.epoch.Parse(v); err != nil {
				sendError(w, "start: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if v := q.Get("end"); v != "" {
			if endBound, err = s.epoch.Parse(v); err != nil {
				sendError(w, "end: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if epochVar := q.Get("epoch"); epochVar != "" {
			res, err = s.reader.VarGetTimeRangeVia(name, epochVar, startBound, endBound)
		} else {
			res, err = s.reader.VarGetTimeRange(name, startBound, endBound)
		}
	case q.Get("first") != "" || q.Get("last") != "":
		first, last, perr := recordRange(q.Get("first"), q.Get("last"))
		if perr != nil {
			sendError(w, perr.Error(), http.StatusBadRequest)
			return
		}
		res, err = s.reader.VarGetRecords(name, first, last)
	default:
		res, err = s.reader.VarGet(name)
	}
	if err != nil {
		s.recordRead("varget", false, startedAt)
		sendError(w, err.Error(), statusFor(err))
		return
	}

	values := jsonValues(res.Values)
	if q.Get("iso8601") == "1" && res.DataType.IsEpoch() {
		strs, serr := s.epoch.EncodeSlice(res.Values, true)
		if serr == nil {
			values = strs
		}
	}
	s.recordRead("varget", true, startedAt)
	if s.metrics != nil && len(res.Shape) > 0 {
		s.metrics.RecordRecordsServed(res.Shape[0])
	}
	sendSuccess(w, DataResponse{
		Name:        res.Name,
		DataType:    res.DataType.String(),
		FirstRecord: res.FirstRecord,
		Shape:       res.Shape,
		Values:      values,
	})
}

// handleListAttributes returns every global attribute with its entries
func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	globals, err := s.reader.GlobalAttsGet()
	if err != nil {
		s.recordRead("attget", false, start)
		sendError(w, err.Error(), statusFor(err))
		return
	}
	out := make(map[string][]interface{}, len(globals))
	for name, entries := range globals {
		vals := make([]interface{}, 0, len(entries))
		for _, e := range entries {
			vals = append(vals, jsonValues(e.Value))
		}
		out[name] = vals
	}
	s.recordRead("attget", true, start)
	sendSuccess(w, out)
}

func (s *Server) recordRead(op string, success bool, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRead(op, success, time.Since(start))
	}
}

func summaryOf(inq *cdf.VarInfo) VariableSummary {
	shape := make([]int, 0, len(inq.DimSizes))
	for i, d := range inq.DimSizes {
		if inq.DimVarys[i] {
			shape = append(shape, d)
		}
	}
	sum := VariableSummary{
		Name:     inq.Name,
		DataType: inq.DataType.String(),
		Records:  inq.LastRecord + 1,
		Shape:    shape,
		RecVary:  inq.RecVary,
	}
	if inq.Sparse != cdf.SparseNone {
		sum.Sparse = inq.Sparse.String()
	}
	return sum
}

func recordRange(firstStr, lastStr string) (int, int, error) {
	first, err := strconv.Atoi(firstStr)
	if err != nil {
		return 0, 0, errors.New("first must be an integer record number")
	}
	last, err := strconv.Atoi(lastStr)
	if err != nil {
		return 0, 0, errors.New("last must be an integer record number")
	}
	return first, last, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cdf.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cdf.ErrUsage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// jsonValues rewrites value slices whose dynamic type does not survive
// encoding/json: []uint8 would turn into base64 and complex128 has no JSON
// form at all.
func jsonValues(values interface{}) interface{} {
	switch s := values.(type) {
	case []uint8:
		out := make([]int, len(s))
		for i, v := range s {
			out[i] = int(v)
		}
		return out
	case []complex128:
		out := make([][2]float64, len(s))
		for i, v := range s {
			out[i] = [2]float64{real(v), imag(v)}
		}
		return out
	}
	return values
}

// jsonValue rewrites a scalar the same way
func jsonValue(value interface{}) interface{} {
	switch v := value.(type) {
	case uint8:
		return int(v)
	case complex128:
		return [2]float64{real(v), imag(v)}
	}
	return value
}
