package server

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

// Metrics collects the server side counters. Command counters are updated
// on the event loop goroutine; the exporter reads them from the HTTP
// goroutine, which the underlying atomic counters allow.
type Metrics struct {
	set      *metrics.Set
	started  time.Time
	commands map[string]*metrics.Counter
	errors   map[common.ErrorCode]*metrics.Counter
	unknown  *metrics.Counter
	keys     atomic.Int64
	replies  *SizeHistogram
}

// NewMetrics creates the metric set with one counter per command and per
// error code.
func NewMetrics() *Metrics {
	m := &Metrics{
		set:      metrics.NewSet(),
		started:  time.Now(),
		commands: make(map[string]*metrics.Counter),
		errors:   make(map[common.ErrorCode]*metrics.Counter),
		replies:  NewSizeHistogram(),
	}
	for _, name := range CommandNames() {
		m.commands[name] = m.set.NewCounter(fmt.Sprintf(`rkv_commands_total{cmd=%q}`, name))
	}
	for _, code := range []common.ErrorCode{common.ErrCodeUnknown, common.ErrCodeTooBig, common.ErrCodeType, common.ErrCodeArg} {
		m.errors[code] = m.set.NewCounter(fmt.Sprintf(`rkv_command_errors_total{code=%q}`, code.String()))
	}
	m.unknown = m.set.NewCounter(`rkv_commands_total{cmd="unknown"}`)
	m.set.NewGauge("rkv_uptime_seconds", func() float64 {
		return time.Since(m.started).Seconds()
	})
	m.set.NewGauge("rkv_keys", func() float64 {
		return float64(m.keys.Load())
	})
	m.set.NewGauge(`rkv_reply_bytes{quantile="0.5"}`, func() float64 {
		return float64(m.replies.Percentile(50))
	})
	m.set.NewGauge(`rkv_reply_bytes{quantile="0.99"}`, func() float64 {
		return float64(m.replies.Percentile(99))
	})
	return m
}

// observe counts one executed command and records the encoded reply size
// and the key count after it. It is a no-op on a nil receiver.
func (m *Metrics) observe(name string, reply common.Value, size, keys int) {
	if m == nil {
		return
	}
	m.keys.Store(int64(keys))
	m.replies.AddSample(size)
	if c, ok := m.commands[name]; ok {
		c.Inc()
	} else {
		m.unknown.Inc()
	}
	if reply.Tag == common.TagErr {
		if c, ok := m.errors[reply.Err.Code]; ok {
			c.Inc()
		}
	}
}

// RegisterTransport exports the connection counters of the transport.
func (m *Metrics) RegisterTransport(stats *transport.Stats) {
	gauge := func(name string, read func() int64) {
		m.set.NewGauge(name, func() float64 { return float64(read()) })
	}
	gauge("rkv_connections_accepted_total", stats.Accepted.Value)
	gauge("rkv_connections_rejected_total", stats.Rejected.Value)
	gauge("rkv_connections_closed_total", stats.Closed.Value)
	gauge("rkv_connections_active", stats.Active.Value)
	gauge("rkv_requests_total", stats.Requests.Value)
	gauge("rkv_protocol_errors_total", stats.ProtocolErrors.Value)
	gauge("rkv_read_bytes_total", stats.BytesIn.Value)
	gauge("rkv_written_bytes_total", stats.BytesOut.Value)
}

// CommandCount returns how often the named command ran.
func (m *Metrics) CommandCount(name string) uint64 {
	if c, ok := m.commands[name]; ok {
		return c.Get()
	}
	return 0
}

// Keys returns the number of keys seen after the last command.
func (m *Metrics) Keys() int64 {
	return m.keys.Load()
}

// Replies returns the histogram of encoded reply sizes.
func (m *Metrics) Replies() *SizeHistogram {
	return m.replies
}

// ErrorCount returns how many replies carried the error code.
func (m *Metrics) ErrorCount(code common.ErrorCode) uint64 {
	if c, ok := m.errors[code]; ok {
		return c.Get()
	}
	return 0
}

// WritePrometheus writes all metrics in the Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// Handler returns an HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.WritePrometheus(w)
	})
}
