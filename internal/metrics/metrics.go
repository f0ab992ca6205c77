package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors for the rental core.
type Metrics struct {
	OrdersCreated      prometheus.Counter
	OrderTransitions   *prometheus.CounterVec
	QuotesComputed     prometheus.Counter
	OversoldProducts   prometheus.Gauge
	OutOfStockProducts prometheus.Gauge
	LowStockProducts   prometheus.Gauge
	ReportDuration     prometheus.Histogram
}

func New() *Metrics {
	return newWithRegisterer(prometheus.DefaultRegisterer)
}

func newWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		OrdersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "rental_orders_created_total",
			Help: "Total number of orders created",
		}),
		OrderTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "rental_order_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"to"}),
		QuotesComputed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "rental_quotes_computed_total",
			Help: "Total number of price quotes computed",
		}),
		OversoldProducts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "rental_oversold_products",
			Help: "Number of products with more units reserved than total stock",
		}),
		OutOfStockProducts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "rental_out_of_stock_products",
			Help: "Number of products with no remaining units on the reference date",
		}),
		LowStockProducts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "rental_low_stock_products",
			Help: "Number of products at or below the low-stock threshold",
		}),
		ReportDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "rental_stock_report_duration_seconds",
			Help:    "Duration of stock report computations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Gauge)
		}
		panic(err)
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Histogram)
		}
		panic(err)
	}
	return collector
}
