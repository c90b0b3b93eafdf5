package engine

import "testing"

func TestEnvelopeStageProgression(t *testing.T) {
	e := &adsr{}
	e.configure(1000)
	e.setParameters(0.01, 0.01, 0.5, 0.01) // 10 samples per stage at 1 kHz
	e.noteOn()

	if e.stage != stageAttack {
		t.Fatalf("stage after noteOn = %d, want attack", e.stage)
	}
	for i := 0; i < 10; i++ {
		e.next()
	}
	if e.stage != stageDecay && e.stage != stageSustain {
		t.Fatalf("stage after attack time = %d, want decay", e.stage)
	}
	for i := 0; i < 20; i++ {
		e.next()
	}
	if e.stage != stageSustain {
		t.Fatalf("stage after decay time = %d, want sustain", e.stage)
	}
	if e.level != 0.5 {
		t.Fatalf("sustain level = %f, want 0.5", e.level)
	}

	e.noteOff()
	if e.stage != stageRelease {
		t.Fatalf("stage after noteOff = %d, want release", e.stage)
	}
	for i := 0; i < 20 && e.active(); i++ {
		e.next()
	}
	if e.active() {
		t.Fatal("envelope still active after release time")
	}
	if e.level != 0 {
		t.Fatalf("level after release = %f, want 0", e.level)
	}
}

func TestEnvelopeZeroAttackJumpsToFull(t *testing.T) {
	e := &adsr{}
	e.configure(48000)
	e.setParameters(0, 0.1, 0.8, 0.1)
	e.noteOn()
	if v := e.next(); v < 1.0 {
		t.Fatalf("first sample with zero attack = %f, want 1.0", v)
	}
}

func TestEnvelopeReleaseFromAttack(t *testing.T) {
	// noteOff mid-attack releases from the current level, not from sustain.
	e := &adsr{}
	e.configure(1000)
	e.setParameters(1.0, 0.1, 0.8, 0.01)
	e.noteOn()
	for i := 0; i < 100; i++ { // a tenth of the attack
		e.next()
	}
	lvl := e.level
	if lvl >= 0.2 {
		t.Fatalf("attack level after 100 samples = %f, want ~0.1", lvl)
	}
	e.noteOff()
	for i := 0; i < 20 && e.active(); i++ {
		if v := e.next(); v > lvl {
			t.Fatalf("release overshot the held level: %f > %f", v, lvl)
		}
	}
	if e.active() {
		t.Fatal("short release from low level did not finish")
	}
}

func TestEnvelopeDoubleNoteOffIsStable(t *testing.T) {
	e := &adsr{}
	e.configure(1000)
	e.setParameters(0.001, 0.001, 0.8, 0.1)
	e.noteOn()
	for i := 0; i < 10; i++ {
		e.next()
	}
	e.noteOff()
	step := e.releaseStep
	e.noteOff() // second noteOff must not restart or rescale the release
	if e.releaseStep != step {
		t.Fatal("second noteOff changed the release step")
	}
}
