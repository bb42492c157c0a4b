package telemetry

import (
	"fmt"
)

// API is an abstraction over logging for the sync engine.
// Tests substitute a recording implementation to assert that failures are reported.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way that should be looked at.
	//
	// The `id` names the component and method that broke, never the specific line of the
	// implementation. ex. a transport failure while uploading results is reported as
	// `client.upload-results`, with the wrapped error passed as a param.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is not necessarily broken but may need investigation,
	// like a page that no longer contains an expected marker.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is only useful while debugging.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current count of a specific event, these counts should
	// not be summed but interpreted as points of data over time.
	ReportCount(id string, count int64)
}

// ScopedAPI attaches a namespace to every id reported through it, like a sub-logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s:%s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s:%s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s:%s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s:%s", s.namespace, id), count)
}
