package analysis

// Stage is a step of the per-request state machine. A request moves forward
// through Received..Responded, or exits early into Rejected or Failed.
type Stage string

const (
	StageReceived    Stage = "received"
	StageValidated   Stage = "validated"
	StageInvoked     Stage = "invoked"
	StageAggregated  Stage = "aggregated"
	StageSynthesized Stage = "synthesized"
	StageResponded   Stage = "responded"
	StageRejected    Stage = "rejected"
	StageFailed      Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	switch s {
	case StageResponded, StageRejected, StageFailed:
		return true
	}
	return false
}

var transitions = map[Stage][]Stage{
	StageReceived:    {StageValidated, StageRejected, StageFailed},
	StageValidated:   {StageInvoked, StageFailed},
	StageInvoked:     {StageAggregated, StageFailed},
	StageAggregated:  {StageSynthesized, StageFailed},
	StageSynthesized: {StageResponded, StageFailed},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to Stage) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
