// Package metrics defines the Prometheus collectors of a bookshelf process.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookshelf"

type Metrics struct {
	recordsTotal       *prometheus.CounterVec
	recordsPassed      *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	passPercent        *prometheus.GaugeVec
	worksInserted      *prometheus.CounterVec
	observations       *prometheus.CounterVec
	pagesFetched       *prometheus.CounterVec
	runs               *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	byKeyword := []string{"keyword"}
	m := &Metrics{
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Raw records read by the validator.",
		}, byKeyword),
		recordsPassed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_passed_total",
			Help:      "Raw records that passed validation.",
		}, byKeyword),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Validation runs that wrote no output.",
		}, byKeyword),
		passPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_percent",
			Help:      "Pass percentage of the latest validation run.",
		}, byKeyword),
		worksInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "works_inserted_total",
			Help:      "New works inserted by the loader.",
		}, byKeyword),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_inserted_total",
			Help:      "Observation rows inserted by the loader.",
		}, byKeyword),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Catalog API pages written to the raw tree.",
		}, byKeyword),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by stage and result.",
		}, []string{"stage", "result"}),
	}

	reg.MustRegister(
		m.recordsTotal, m.recordsPassed, m.validationFailures, m.passPercent,
		m.worksInserted, m.observations, m.pagesFetched, m.runs,
	)
	return m
}

// ObserveValidation records one validation run of keyword.
func (m *Metrics) ObserveValidation(keyword string, total, passed int, percent float64, failed bool) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(keyword).Add(float64(total))
	m.recordsPassed.WithLabelValues(keyword).Add(float64(passed))
	if total > 0 {
		m.passPercent.WithLabelValues(keyword).Set(percent)
	}
	if failed {
		m.validationFailures.WithLabelValues(keyword).Inc()
	}
}

// ObserveLoad records one committed partition of keyword.
func (m *Metrics) ObserveLoad(keyword string, newWorks, observations int) {
	if m == nil {
		return
	}
	m.worksInserted.WithLabelValues(keyword).Add(float64(newWorks))
	m.observations.WithLabelValues(keyword).Add(float64(observations))
}

// ObserveFetch records pages written for keyword.
func (m *Metrics) ObserveFetch(keyword string, pages int) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(keyword).Add(float64(pages))
}

// ObserveRun records the outcome of one stage of a scheduled or manual run.
func (m *Metrics) ObserveRun(stage string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.runs.WithLabelValues(stage, result).Inc()
}
