package core

//
// Client request metrics
//

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSummaryObjectives returns the summary objectives of the duration summary.
func metricsSummaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.5:  0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

type clientMetrics struct {
	// requestsTotal counts the requests sent, by operation, method and status code.
	// Requests without a response are counted with code "error".
	requestsTotal *prometheus.CounterVec

	// requestsInflight gauges the number of requests currently inflight.
	requestsInflight prometheus.Gauge

	// requestDuration summarizes the time until response headers arrive (in seconds).
	requestDuration *prometheus.SummaryVec
}

func newClientMetrics(registerer prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lakefs_client_requests_total",
			Help: "Total number of lakeFS API requests sent",
		}, []string{"operation", "method", "code"}),
		requestsInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lakefs_client_requests_inflight",
			Help: "The number of lakeFS API requests currently inflight",
		}),
		requestDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "lakefs_client_request_duration_seconds",
			Help:       "Summarizes the time to receive a lakeFS API response (in seconds)",
			Objectives: metricsSummaryObjectives(),
		}, []string{"operation"}),
	}
	if registerer == nil {
		return m, nil
	}
	var err error
	if m.requestsTotal, err = register(registerer, m.requestsTotal); err != nil {
		return nil, err
	}
	if m.requestsInflight, err = register(registerer, m.requestsInflight); err != nil {
		return nil, err
	}
	if m.requestDuration, err = register(registerer, m.requestDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, reusing the collector already registered by another client.
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	err := registerer.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *clientMetrics) observe(operationID, method string, statusCode int, elapsed time.Duration) {
	code := "error"
	if statusCode != 0 {
		code = strconv.Itoa(statusCode)
	}
	m.requestsTotal.WithLabelValues(operationID, method, code).Inc()
	m.requestDuration.WithLabelValues(operationID).Observe(elapsed.Seconds())
}
