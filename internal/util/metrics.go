package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_fetches_total",
		Help: "Total number of vendor stock fetches",
	}, []string{"result"})

	StockCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_cache_hits_total",
		Help: "Total number of stock snapshot cache hits",
	})

	StockFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_fetch_latency_seconds",
		Help:    "Latency of vendor stock fetches",
		Buckets: prometheus.DefBuckets,
	})

	OrdersReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "employee_orders_received_total",
		Help: "Total number of employee orders recorded",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "employee_orders_deleted_total",
		Help: "Total number of pending employee orders deleted by an admin",
	})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "employee_orders_rejected_total",
		Help: "Total number of rejected employee order submissions",
	}, []string{"reason"})

	BatchesSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batches_submitted_total",
		Help: "Total number of bulk orders accepted by the vendor",
	})

	BatchesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batches_failed_total",
		Help: "Total number of failed bulk order submissions",
	}, []string{"reason"})

	BatchReconcileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_reconcile_failures_total",
		Help: "Total number of completion write-backs that failed after vendor acceptance",
	})

	UnresolvedSKULinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unresolved_sku_lines_total",
		Help: "Total number of aggregated lines that fell back to the composite style|color|size key",
	})

	VendorSubmitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vendor_submit_latency_seconds",
		Help:    "Latency of vendor bulk order submissions",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
