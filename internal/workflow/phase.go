package workflow

type Phase string

const (
	PhaseInitial            Phase = "initial"
	PhaseProcessing         Phase = "processing"
	PhaseResults            Phase = "results"
	PhaseStrategyProcessing Phase = "strategy-processing"
	PhaseStrategyResults    Phase = "strategy-results"
	PhaseScriptProcessing   Phase = "script-processing"
	PhaseScriptResults      Phase = "script-results"
)

var phaseOrder = []Phase{
	PhaseInitial,
	PhaseProcessing,
	PhaseResults,
	PhaseStrategyProcessing,
	PhaseStrategyResults,
	PhaseScriptProcessing,
	PhaseScriptResults,
}

func Phases() []Phase {
	return append([]Phase(nil), phaseOrder...)
}

func (p Phase) String() string {
	return string(p)
}

func (p Phase) Valid() bool {
	for _, phase := range phaseOrder {
		if phase == p {
			return true
		}
	}
	return false
}

// Waiting reports whether the phase is an opaque waiting state that ends with
// a timed advance.
func (p Phase) Waiting() bool {
	switch p {
	case PhaseProcessing, PhaseStrategyProcessing, PhaseScriptProcessing:
		return true
	default:
		return false
	}
}

// advanceTarget returns the phase a waiting phase settles into.
func (p Phase) advanceTarget() (Phase, bool) {
	switch p {
	case PhaseProcessing:
		return PhaseResults, true
	case PhaseStrategyProcessing:
		return PhaseStrategyResults, true
	case PhaseScriptProcessing:
		return PhaseScriptResults, true
	default:
		return "", false
	}
}
