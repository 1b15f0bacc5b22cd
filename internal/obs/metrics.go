package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outbound HTTP client metrics.
var (
	clientInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shop_client_in_flight_requests",
		Help: "In-flight outbound HTTP requests.",
	})

	clientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_client_requests_total",
			Help: "Total number of outbound HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	clientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_client_request_duration_seconds",
			Help:    "Outbound HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Init registers client metrics in the default registry.
func Init() {
	prometheus.MustRegister(clientInFlight, clientRequestsTotal, clientRequestDuration)
}

// Handler exposes the default registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentTransport measures RPS/latency/in-flight for outbound requests.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		path := r.URL.Path // no router on the client side, take as is
		method := r.Method

		clientInFlight.Inc()
		start := time.Now()

		resp, err := next.RoundTrip(r)

		duration := time.Since(start).Seconds()
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}

		clientRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		clientRequestsTotal.WithLabelValues(method, path, status).Inc()
		clientInFlight.Dec()

		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
