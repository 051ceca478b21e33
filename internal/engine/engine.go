// Package engine implements the threshold/cooldown decision state machine.
// Evaluate is a pure function so every branch is unit-testable without a
// store, a transport, or process-exit interception.
package engine

// Outcome is the closed set of decisions one invocation can reach.
type Outcome int

const (
	// NoData means no reading fell inside the window; nothing to compare.
	NoData Outcome = iota
	// AboveThreshold means the mean is at or above the threshold; safe.
	AboveThreshold
	// ClockSkew means the last alert is recorded in the future relative
	// to now. Fatal inconsistency: never alert, never suppress.
	ClockSkew
	// CooldownActive means the threshold is breached but an alert already
	// fired within the cooldown; suppress.
	CooldownActive
	// ShouldAlert means the threshold is breached, the clock is
	// consistent, and the cooldown has elapsed.
	ShouldAlert
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case NoData:
		return "no-data"
	case AboveThreshold:
		return "above-threshold"
	case ClockSkew:
		return "clock-skew"
	case CooldownActive:
		return "cooldown-active"
	case ShouldAlert:
		return "should-alert"
	default:
		return "unknown"
	}
}

// Input carries everything Evaluate needs for one decision.
type Input struct {
	Mean      float64 // mean temperature over the window; valid only if HasData
	HasData   bool    // false when zero readings fell inside the window
	Threshold float64
	LastAlert int64 // unix seconds of the newest recorded alert, 0 = never
	Cooldown  int64 // seconds required between alerts
	Now       int64 // unix seconds
}

// Evaluate applies the decision rules in fixed priority order and returns
// exactly one outcome. Several conditions can hold at once; the first match
// wins. No-data short-circuits before any numeric comparison, and clock skew
// is checked before cooldown arithmetic so a negative elapsed time can never
// wrap into a false suppression or a false fire.
func Evaluate(in Input) Outcome {
	if !in.HasData {
		return NoData
	}
	// >= keeps a mean exactly at the threshold on the safe side:
	// alerts fire only on strictly-below.
	if in.Mean >= in.Threshold {
		return AboveThreshold
	}
	elapsed := in.Now - in.LastAlert
	if elapsed < 0 {
		return ClockSkew
	}
	if elapsed < in.Cooldown {
		return CooldownActive
	}
	return ShouldAlert
}
