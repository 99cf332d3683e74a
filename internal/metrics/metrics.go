package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 结账结果标签
const (
	CheckoutResultSuccess       = "success"
	CheckoutResultEmptyCart     = "empty_cart"
	CheckoutResultNoStock       = "insufficient_stock"
	CheckoutResultCouponInvalid = "coupon_invalid"
	CheckoutResultError         = "error"
)

var (
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verso_checkouts_total",
		Help: "Total number of checkout attempts by result",
	}, []string{"result"})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verso_order_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"from", "to"})

	CouponRedemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verso_coupon_redemptions_total",
		Help: "Total number of coupons applied to orders",
	})

	StockConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verso_stock_conflicts_total",
		Help: "Total number of rejected stock decrements",
	}, []string{"level"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "verso_checkout_latency_seconds",
		Help:    "Latency of the checkout transaction",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "verso_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verso_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

// ObserveCheckout 记录一次结账结果与耗时
func ObserveCheckout(result string, startedAt time.Time) {
	CheckoutsTotal.WithLabelValues(result).Inc()
	CheckoutLatency.Observe(time.Since(startedAt).Seconds())
}

// Middleware 采集 HTTP 请求指标
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
