package engine

type envStage int

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// adsr is the per-voice amplitude envelope. Time constants are read from the
// parameter snapshot at note-on; stage and level are runtime state.
type adsr struct {
	sampleRate float64

	attackSec  float64
	decaySec   float64
	sustainLvl float64
	releaseSec float64

	stage       envStage
	level       float64
	releaseStep float64
}

func (e *adsr) configure(sampleRate float64) {
	e.sampleRate = sampleRate
}

func (e *adsr) setParameters(attack, decay, sustain, release float64) {
	e.attackSec = attack
	e.decaySec = decay
	e.sustainLvl = sustain
	e.releaseSec = release
}

func (e *adsr) noteOn() {
	e.stage = stageAttack
	e.level = 0
}

// noteOff enters the release stage from the current level, wherever the
// envelope happens to be. A zero release time drops straight to idle.
func (e *adsr) noteOff() {
	if e.stage == stageIdle || e.stage == stageRelease {
		return
	}
	if e.releaseSec <= 0 || e.level <= 0 {
		e.reset()
		return
	}
	e.releaseStep = e.level / (e.releaseSec * e.sampleRate)
	e.stage = stageRelease
}

func (e *adsr) reset() {
	e.stage = stageIdle
	e.level = 0
}

func (e *adsr) active() bool {
	return e.stage != stageIdle
}

// next advances the envelope by one sample and returns the new level.
func (e *adsr) next() float64 {
	switch e.stage {
	case stageAttack:
		step := 1.0
		if e.attackSec > 0 {
			step = 1.0 / (e.attackSec * e.sampleRate)
		}
		e.level += step
		if e.level >= 1 {
			e.level = 1
			e.stage = stageDecay
		}
	case stageDecay:
		step := 1.0
		if e.decaySec > 0 {
			step = (1.0 - e.sustainLvl) / (e.decaySec * e.sampleRate)
		}
		e.level -= step
		if e.level <= e.sustainLvl {
			e.level = e.sustainLvl
			e.stage = stageSustain
		}
	case stageSustain:
		e.level = e.sustainLvl
	case stageRelease:
		e.level -= e.releaseStep
		if e.level <= 0.0001 {
			e.reset()
		}
	case stageIdle:
		e.level = 0
	}
	return e.level
}
