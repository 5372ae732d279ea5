// Package envelope provides the per-voice envelope generators.
package envelope

// Stage represents the current envelope stage.
type Stage int

const (
	// StageIdle represents envelope idle state
	StageIdle Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageDecay represents envelope decay phase
	StageDecay
	// StageSustain represents envelope sustain phase
	StageSustain
	// StageRelease represents envelope release phase
	StageRelease
)

// ADSR implements an Attack-Decay-Sustain-Release envelope generator
// driven one sample at a time. Stage times are set as normalized values
// in [0,1] and mapped onto a quadratic curve spanning 1ms to ~10s, so the
// low end of a controller's travel covers the musically useful range.
type ADSR struct {
	sampleRate float64

	// Per-sample rates derived from the normalized stage parameters.
	attackRate   float64
	decayRate    float64
	sustainLevel float64
	releaseRate  float64

	stage Stage
	level float64
}

// New creates a new ADSR envelope.
func New(sampleRate float64) *ADSR {
	return &ADSR{
		sampleRate: sampleRate,
		stage:      StageIdle,
	}
}

// Configure recomputes the per-sample rates from four normalized
// parameters in [0,1]. Callers are expected to pass pre-clamped values;
// the parameter store owns range validation. Cheap enough to call every
// block so live tweaks reach notes already sounding.
func (e *ADSR) Configure(attack, decay, sustain, release float64) {
	e.attackRate = e.timeToRate(attack)
	e.decayRate = e.timeToRate(decay)
	e.sustainLevel = sustain
	e.releaseRate = e.timeToRate(release)
}

// timeToRate maps a normalized stage time onto a per-sample level
// increment: t = 1ms + p*p*10s, rate = 1/(t*sr).
func (e *ADSR) timeToRate(p float64) float64 {
	t := 0.001 + p*p*10.0
	return 1.0 / (t * e.sampleRate)
}

// Trigger forces the envelope into the attack stage.
func (e *ADSR) Trigger() {
	e.stage = StageAttack
}

// Release moves the envelope into the release stage unless it is idle.
func (e *ADSR) Release() {
	if e.stage != StageIdle {
		e.stage = StageRelease
	}
}

// Reset immediately returns the envelope to idle at level zero.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.level = 0
}

// IsActive returns true while the envelope is generating output.
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle
}

// GetStage returns the current envelope stage.
func (e *ADSR) GetStage() Stage {
	return e.stage
}

// Level returns the current output level without advancing the envelope.
func (e *ADSR) Level() float64 {
	return e.level
}

// Next advances the envelope by one sample and returns the new level.
// The level is always in [0,1].
func (e *ADSR) Next() float64 {
	switch e.stage {
	case StageAttack:
		e.level += e.attackRate
		if e.level >= 1.0 {
			e.level = 1.0
			e.stage = StageDecay
		}

	case StageDecay:
		e.level -= e.decayRate
		if e.level <= e.sustainLevel {
			e.level = e.sustainLevel
			e.stage = StageSustain
		}

	case StageSustain:
		e.level = e.sustainLevel

	case StageRelease:
		e.level -= e.releaseRate
		if e.level <= 0 {
			e.level = 0
			e.stage = StageIdle
		}

	case StageIdle:
		e.level = 0
	}

	return e.level
}
