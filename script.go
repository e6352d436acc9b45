package lattice

import (
	"encoding/json"
	"fmt"
)

// scriptStep represents a single action in a gesture script.
type scriptStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// gestureScript is the top-level JSON structure for a gesture script.
type gestureScript struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadGestureScript parses a JSON gesture script and attaches it to the
// context. Steps feed the inject queue one action at a time, so scripted
// gestures exercise the exact code path real input does. Supported actions:
// click, hover, drag, press, release, cancel, rotate, wait.
func (c *InteractionContext) LoadGestureScript(jsonData []byte) error {
	var raw struct {
		Steps []scriptStep `json:"steps"`
	}
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return fmt.Errorf("parse gesture script: %w", err)
	}
	if len(raw.Steps) == 0 {
		return fmt.Errorf("parse gesture script: no steps")
	}
	c.script = &gestureScript{steps: raw.Steps}
	return nil
}

// ScriptDone reports whether the attached script has executed every step.
// True when no script is attached.
func (c *InteractionContext) ScriptDone() bool {
	return c.script == nil || c.script.done
}

// step advances the script by one frame. Called from Update before the
// inject queue is drained.
func (r *gestureScript) step(c *InteractionContext) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(c.injected) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "click":
		c.InjectClick(st.X, st.Y)
	case "hover":
		c.InjectHover(st.X, st.Y)
	case "press":
		c.InjectPress(st.X, st.Y)
	case "release":
		c.InjectRelease(st.X, st.Y)
	case "drag":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		c.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, frames)
	case "cancel":
		c.CancelDrag()
	case "rotate":
		c.RotateDrag()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(c.injected) == 0 {
		r.done = true
	}
}
