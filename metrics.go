package maxitaxi

import "sync/atomic"

// MetricID defines a public type used by MaxiTaxi client APIs.
//
// MetricID instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the session engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the session engine.
	MetricLoginFailure
	// MetricRegisterSuccess is an exported constant or variable used by the session engine.
	MetricRegisterSuccess
	// MetricRegisterFailure is an exported constant or variable used by the session engine.
	MetricRegisterFailure
	// MetricRefreshSuccess is an exported constant or variable used by the session engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the session engine.
	MetricRefreshFailure
	// MetricForcedLogout is an exported constant or variable used by the session engine.
	MetricForcedLogout
	// MetricLogout is an exported constant or variable used by the session engine.
	MetricLogout
	// MetricDispatchSuccess is an exported constant or variable used by the session engine.
	MetricDispatchSuccess
	// MetricDispatchUnauthorized is an exported constant or variable used by the session engine.
	MetricDispatchUnauthorized
	// MetricDispatchFailure is an exported constant or variable used by the session engine.
	MetricDispatchFailure
	// MetricPreflightRejected is an exported constant or variable used by the session engine.
	MetricPreflightRejected
	// MetricChecksScheduled is an exported constant or variable used by the session engine.
	MetricChecksScheduled
	// MetricChecksCoalesced is an exported constant or variable used by the session engine.
	MetricChecksCoalesced
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:         "login_success",
	MetricLoginFailure:         "login_failure",
	MetricRegisterSuccess:      "register_success",
	MetricRegisterFailure:      "register_failure",
	MetricRefreshSuccess:       "refresh_success",
	MetricRefreshFailure:       "refresh_failure",
	MetricForcedLogout:         "forced_logout",
	MetricLogout:               "logout",
	MetricDispatchSuccess:      "dispatch_success",
	MetricDispatchUnauthorized: "dispatch_unauthorized",
	MetricDispatchFailure:      "dispatch_failure",
	MetricPreflightRejected:    "preflight_rejected",
	MetricChecksScheduled:      "checks_scheduled",
	MetricChecksCoalesced:      "checks_coalesced",
}

// String describes the string operation and its observable behavior.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by MaxiTaxi client APIs.
//
// Metrics instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by MaxiTaxi client APIs.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled does not mutate shared global state and can be used concurrently.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state beyond the addressed counter and
// can be used concurrently.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
