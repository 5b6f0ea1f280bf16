package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retrieval_planner",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	PlansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retrieval_planner",
		Name:      "plans_total",
		Help:      "Retrieval plans computed.",
	})

	RanksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retrieval_planner",
		Name:      "ranks_total",
		Help:      "Full pipeline runs by outcome.",
	}, []string{"outcome"})

	EmptyResultSets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retrieval_planner",
		Name:      "empty_result_sets_total",
		Help:      "Pipeline runs where filtering left zero candidates.",
	})

	AuthorityRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retrieval_planner",
		Name:      "authority_refreshes_total",
		Help:      "Background authority table refreshes by outcome.",
	}, []string{"outcome"})

	AuthorityTableSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "retrieval_planner",
		Name:      "authority_table_domains",
		Help:      "Domains in the active authority table snapshot.",
	})
)

// Middleware records request latency per route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			httpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
