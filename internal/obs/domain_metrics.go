package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SaleComputationsTotal counts sale computations by operation, pricing mode and outcome.
	SaleComputationsTotal *prometheus.CounterVec
	// SaleLinesPerComputation records how many lines each computation carried.
	SaleLinesPerComputation prometheus.Histogram
	// StampDutyAppliedTotal counts computations that owed stamp duty.
	StampDutyAppliedTotal prometheus.Counter
	// InstallmentSchedulesTotal counts installment schedule requests by outcome.
	InstallmentSchedulesTotal *prometheus.CounterVec
	// VATRateCacheTotal counts VAT-rate catalog cache lookups by result.
	VATRateCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		SaleComputationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_computations_total",
			Help:      "Count of sale computations by operation, mode and result.",
		}, []string{"operation", "mode", "result"}))
		SaleLinesPerComputation = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_computation_lines",
			Help:      "Number of lines per sale computation.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}))
		StampDutyAppliedTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stamp_duty_applied_total",
			Help:      "Number of sale computations that owed stamp duty.",
		}))
		InstallmentSchedulesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installment_schedules_total",
			Help:      "Count of installment schedule requests by result.",
		}, []string{"result"}))
		VATRateCacheTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vat_rate_cache_total",
			Help:      "VAT-rate catalog cache lookups by result.",
		}, []string{"result"}))
	})
}

// ObserveSaleComputation records one computation. It is a no-op until the metrics are registered.
func ObserveSaleComputation(operation, mode, result string, lines int, stampDuty bool) {
	if SaleComputationsTotal == nil {
		return
	}
	SaleComputationsTotal.WithLabelValues(operation, mode, result).Inc()
	SaleLinesPerComputation.Observe(float64(lines))
	if stampDuty {
		StampDutyAppliedTotal.Inc()
	}
}

// ObserveInstallmentSchedule records an installment schedule outcome.
func ObserveInstallmentSchedule(result string) {
	if InstallmentSchedulesTotal == nil {
		return
	}
	InstallmentSchedulesTotal.WithLabelValues(result).Inc()
}

// ObserveVATRateCache records a cache hit, miss or error.
func ObserveVATRateCache(result string) {
	if VATRateCacheTotal == nil {
		return
	}
	VATRateCacheTotal.WithLabelValues(result).Inc()
}
