package pipeline

import (
	"encoding/json"
	"fmt"
)

const snapshotVersion = 1

type stageSnapshot struct {
	Kind  string          `json:"kind"`
	Label string          `json:"label"`
	State json.RawMessage `json:"state"`
}

type pipelineSnapshot struct {
	Version int             `json:"version"`
	Stages  []stageSnapshot `json:"stages"`
}

// SaveState serializes every stage's runtime state to an opaque JSON
// string. The stage descriptors themselves are not configuration-portable;
// LoadState requires a pipeline built with the same AddX sequence.
func (p *Pipeline) SaveState() (string, error) {
	snap := pipelineSnapshot{Version: snapshotVersion}

	for i, st := range p.stages {
		raw, err := st.snapshot()
		if err != nil {
			return "", fmt.Errorf("pipeline: save stage %d (%s): %w", i, st.label(), err)
		}

		snap.Stages = append(snap.Stages, stageSnapshot{
			Kind:  st.kind().String(),
			Label: st.label(),
			State: raw,
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("pipeline: save state: %w", err)
	}

	return string(data), nil
}

// LoadState restores runtime state produced by SaveState on a pipeline
// with an identical stage list. Continuation behavior after a successful
// load matches the uninterrupted original.
func (p *Pipeline) LoadState(state string) error {
	var snap pipelineSnapshot
	if err := json.Unmarshal([]byte(state), &snap); err != nil {
		return fmt.Errorf("pipeline: load state: %w", err)
	}

	if len(snap.Stages) != len(p.stages) {
		return fmt.Errorf("%w: snapshot has %d stages, pipeline has %d",
			ErrStateMismatch, len(snap.Stages), len(p.stages))
	}

	for i, st := range p.stages {
		if snap.Stages[i].Kind != st.kind().String() {
			return fmt.Errorf("%w: stage %d is %s, snapshot has %s",
				ErrStateMismatch, i, st.kind(), snap.Stages[i].Kind)
		}
	}

	for i, st := range p.stages {
		if err := st.restore(snap.Stages[i].State); err != nil {
			return fmt.Errorf("pipeline: load stage %d (%s): %w", i, st.label(), err)
		}
	}

	return nil
}

// ClearState reinitializes every stage's runtime state to its empty form
// while preserving the configured stage list. The next process call behaves
// like a freshly constructed pipeline.
func (p *Pipeline) ClearState() {
	for _, st := range p.stages {
		st.reset()
	}

	p.drift = nil
}

// ListState returns a diagnostic summary of every stage without any state
// data. It is never sufficient for persistence.
func (p *Pipeline) ListState() []StageInfo {
	out := make([]StageInfo, len(p.stages))

	for i, st := range p.stages {
		info := st.describe()
		info.Ordinal = i
		out[i] = info
	}

	return out
}
