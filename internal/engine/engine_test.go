package engine

import "testing"

const now = int64(1_700_000_000)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Outcome
	}{
		{
			name: "no data wins regardless of other fields",
			in:   Input{HasData: false, Threshold: 8.0, LastAlert: now + 100, Cooldown: 3600, Now: now},
			want: NoData,
		},
		{
			name: "mean above threshold",
			in:   Input{Mean: 10.0, HasData: true, Threshold: 8.0, Cooldown: 3600, Now: now},
			want: AboveThreshold,
		},
		{
			name: "mean exactly at threshold never alerts",
			in:   Input{Mean: 8.0, HasData: true, Threshold: 8.0, Cooldown: 3600, Now: now},
			want: AboveThreshold,
		},
		{
			name: "mean just below threshold with no history alerts",
			in:   Input{Mean: 7.999, HasData: true, Threshold: 8.0, LastAlert: 0, Cooldown: 3600, Now: now},
			want: ShouldAlert,
		},
		{
			name: "clock skew beats cooldown",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now + 100, Cooldown: 3600, Now: now},
			want: ClockSkew,
		},
		{
			name: "clock skew beats elapsed cooldown",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now + 1, Cooldown: 0, Now: now},
			want: ClockSkew,
		},
		{
			name: "cooldown active just after an alert",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now - 10, Cooldown: 3600, Now: now},
			want: CooldownActive,
		},
		{
			name: "cooldown boundary: elapsed == cooldown alerts again",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now - 3600, Cooldown: 3600, Now: now},
			want: ShouldAlert,
		},
		{
			name: "cooldown boundary: one second short suppresses",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now - 3599, Cooldown: 3600, Now: now},
			want: CooldownActive,
		},
		{
			name: "alert at the same instant as the last alert is suppressed",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now, Cooldown: 3600, Now: now},
			want: CooldownActive,
		},
		{
			name: "zero cooldown never suppresses",
			in:   Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: now, Cooldown: 0, Now: now},
			want: ShouldAlert,
		},
		{
			name: "mean of zero is data, not no-data",
			in:   Input{Mean: 0.0, HasData: true, Threshold: 8.0, LastAlert: 0, Cooldown: 3600, Now: now},
			want: ShouldAlert,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.in); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Cooldown suppression must hold across the whole half-open interval
// [lastAlert, lastAlert+cooldown) and nowhere past it.
func TestEvaluate_CooldownMonotonicity(t *testing.T) {
	const lastAlert = now
	const cooldown = int64(3600)

	base := Input{Mean: 5.0, HasData: true, Threshold: 8.0, LastAlert: lastAlert, Cooldown: cooldown}

	for _, offset := range []int64{0, 1, 10, 1800, 3599} {
		in := base
		in.Now = lastAlert + offset
		if got := Evaluate(in); got != CooldownActive {
			t.Errorf("Evaluate(now=lastAlert+%d) = %v, want CooldownActive", offset, got)
		}
	}
	for _, offset := range []int64{3600, 3601, 86400} {
		in := base
		in.Now = lastAlert + offset
		if got := Evaluate(in); got != ShouldAlert {
			t.Errorf("Evaluate(now=lastAlert+%d) = %v, want ShouldAlert", offset, got)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{NoData, "no-data"},
		{AboveThreshold, "above-threshold"},
		{ClockSkew, "clock-skew"},
		{CooldownActive, "cooldown-active"},
		{ShouldAlert, "should-alert"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.outcome), got, tt.want)
		}
	}
}
