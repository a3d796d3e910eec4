package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartLinesTotal counts evaluated cart lines by outcome (discounted or a
	// skip reason).
	CartLinesTotal *prometheus.CounterVec
	// DiscountBatchesTotal counts generate invocations by result.
	DiscountBatchesTotal *prometheus.CounterVec
	// DiscountCandidatesTotal counts emitted discount candidates.
	DiscountCandidatesTotal prometheus.Counter
	// CatalogLookupsTotal counts tier table lookups by source and result.
	CatalogLookupsTotal *prometheus.CounterVec
	// TierEntriesDroppedTotal counts malformed tier table entries dropped
	// during parsing.
	TierEntriesDroppedTotal prometheus.Counter
	// GenerateLatency records discount generation latency in milliseconds.
	GenerateLatency prometheus.Histogram
)

// Cart line outcomes reported on CartLinesTotal.
const (
	LineDiscounted        = "discounted"
	LineSkippedKind       = "skipped_merchandise"
	LineSkippedNoTable    = "skipped_no_table"
	LineSkippedNoTier     = "skipped_no_tier"
	LineSkippedNotCheaper = "skipped_not_cheaper"
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_lines_total",
			Help:      "Count of evaluated cart lines by outcome.",
		}, []string{"outcome"})
		DiscountBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_batches_total",
			Help:      "Count of generated discount batches by result.",
		}, []string{"result"})
		DiscountCandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_candidates_total",
			Help:      "Total number of emitted discount candidates.",
		})
		CatalogLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookups_total",
			Help:      "Count of tier table lookups by source and result.",
		}, []string{"source", "result"})
		TierEntriesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_entries_dropped_total",
			Help:      "Total number of malformed tier table entries dropped during parsing.",
		})
		GenerateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_ms",
			Help:      "Latency of discount generation in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		})

		mustRegisterCollector(reg, CartLinesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartLinesTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountBatchesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountBatchesTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountCandidatesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DiscountCandidatesTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogLookupsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogLookupsTotal = v
			}
		})
		mustRegisterCollector(reg, TierEntriesDroppedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				TierEntriesDroppedTotal = v
			}
		})
		mustRegisterCollector(reg, GenerateLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				GenerateLatency = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
