// Package metrics records guided-workflow counters with Prometheus.
package metrics

import (
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"mindcue/internal/workflow"
)

// Recorder implements workflow.Metrics on its own registry so several
// controllers (and tests) never collide on the default one.
type Recorder struct {
	registry      *prometheus.Registry
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	staleTimers   prometheus.Counter
	materializing *prometheus.CounterVec
}

var _ workflow.Metrics = (*Recorder)(nil)

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindcue_workflow_transitions_total",
				Help: "Accepted workflow phase transitions",
			},
			[]string{"from", "to"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindcue_workflow_rejections_total",
				Help: "Workflow operations rejected without a state change",
			},
			[]string{"op", "reason"},
		),
		staleTimers: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mindcue_workflow_stale_timers_total",
				Help: "Timers that fired after being invalidated",
			},
		),
		materializing: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mindcue_projects_materialized_total",
				Help: "Project materialization attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (r *Recorder) ObserveTransition(from, to workflow.Phase) {
	r.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (r *Recorder) ObserveRejection(op string, reason workflow.RejectReason) {
	r.rejections.WithLabelValues(op, string(reason)).Inc()
}

func (r *Recorder) ObserveStaleTimer() {
	r.staleTimers.Inc()
}

func (r *Recorder) ObserveMaterialization(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	r.materializing.WithLabelValues(outcome).Inc()
}

// WriteText dumps every collected family in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) (int, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return 0, err
	}
	var total int
	for _, family := range families {
		n, err := expfmt.MetricFamilyToText(w, family)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Summary is a flat view of the counters for status lines and CLI output.
type Summary struct {
	Transitions  int
	Rejections   int
	StaleTimers  int
	Materialized int
	Failed       int
}

func (r *Recorder) Summary() (Summary, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := int(metric.GetCounter().GetValue())
			switch family.GetName() {
			case "mindcue_workflow_transitions_total":
				out.Transitions += value
			case "mindcue_workflow_rejections_total":
				out.Rejections += value
			case "mindcue_workflow_stale_timers_total":
				out.StaleTimers += value
			case "mindcue_projects_materialized_total":
				for _, label := range metric.GetLabel() {
					if label.GetName() == "outcome" && label.GetValue() == "success" {
						out.Materialized += value
					} else if label.GetName() == "outcome" {
						out.Failed += value
					}
				}
			}
		}
	}
	return out, nil
}

func (s Summary) String() string {
	return "transitions=" + strconv.Itoa(s.Transitions) +
		" rejections=" + strconv.Itoa(s.Rejections) +
		" stale_timers=" + strconv.Itoa(s.StaleTimers) +
		" projects=" + strconv.Itoa(s.Materialized) +
		" failed=" + strconv.Itoa(s.Failed)
}
