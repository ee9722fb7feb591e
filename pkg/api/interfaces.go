// Package api provides interfaces for dependency injection
package api

import (
	"github.com/heliolib/gocdf/pkg/cdf"
)

// FileReader defines the read operations the handlers need. *cdf.Reader
// satisfies it; tests substitute a stub.
type FileReader interface {
	Info() *cdf.Info
	Variables() []string
	Attributes() []string
	VarInq(name string) (*cdf.VarInfo, error)
	VarGet(name string) (*cdf.Result, error)
	VarGetRecords(name string, first, last int) (*cdf.Result, error)
	VarGetTimeRange(name string, start, end interface{}) (*cdf.Result, error)
	VarGetTimeRangeVia(name, epochName string, start, end interface{}) (*cdf.Result, error)
	GlobalAttsGet() (map[string][]*cdf.Entry, error)
	VarAttsGet(varName string) (map[string]*cdf.Entry, error)
}
