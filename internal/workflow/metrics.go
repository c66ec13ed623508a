package workflow

// Metrics receives workflow counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveTransition(from, to Phase)
	ObserveRejection(op string, reason RejectReason)
	ObserveStaleTimer()
	ObserveMaterialization(ok bool)
}

type nopMetrics struct{}

func (nopMetrics) ObserveTransition(Phase, Phase)        {}
func (nopMetrics) ObserveRejection(string, RejectReason) {}
func (nopMetrics) ObserveStaleTimer()                    {}
func (nopMetrics) ObserveMaterialization(bool)           {}
