// Package proxy forwards browser requests to the document AI API with the
// API token attached, so the token never reaches the browser.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id assigned to each proxied request.
const RequestIDHeader = "X-Request-Id"

// Options configure the proxy handler.
type Options struct {
	// Target is the API base URL, e.g. https://us.app.zuva.ai/api/v2.
	Target string
	Token  string
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
	// Registry receives the proxy metrics and backs /metrics. A new
	// registry is created when nil.
	Registry *prometheus.Registry
	Logger   logrus.FieldLogger
}

// Metrics are the proxy's Prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	upstreamErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docai_proxy_requests_total",
				Help: "Count of requests forwarded to the API",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docai_proxy_request_duration_seconds",
				Help:    "Time to answer proxied requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
		upstreamErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docai_proxy_upstream_errors_total",
				Help: "Count of requests that failed to reach the API",
			},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.upstreamErrors)
	return m
}

// New returns the proxy handler. Every path except /metrics is forwarded to
// Target with the path appended to Target's path.
func New(opts Options) (http.Handler, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: want scheme://host[/path]", opts.Target)
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("API token not set")
	}

	log := opts.Logger
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := NewMetrics(reg)

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Set("Authorization", "Bearer "+opts.Token)
		},
		ModifyResponse: func(resp *http.Response) error {
			// CORS is answered here, not by the API.
			for _, h := range []string{
				"Access-Control-Allow-Origin",
				"Access-Control-Allow-Credentials",
				"Access-Control-Expose-Headers",
			} {
				resp.Header.Del(h)
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			metrics.upstreamErrors.Inc()
			log.WithError(err).WithField("request_id", r.Header.Get(RequestIDHeader)).Error("upstream request failed")
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(accessLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       []string{RequestIDHeader},
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Handle("/*", promhttp.InstrumentHandlerDuration(metrics.duration,
		promhttp.InstrumentHandlerCounter(metrics.requests, rp)))

	return r, nil
}

// requestID assigns an id to requests that lack one and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": r.Header.Get(RequestIDHeader),
			}).Info("proxied")
		})
	}
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
