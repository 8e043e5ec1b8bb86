// Package persistence saves and restores Machine runtime state as a
// MachineSnapshot, separate from the declarative Definition/Statechart a
// machine was built from.
package persistence

import "github.com/ethan/exm"

// MachineSnapshot is the minimal runtime state needed to resume a Machine
// against an already-compiled Statechart: the active configuration, the
// extended state, and whether it had already run to completion.
type MachineSnapshot struct {
	MachineID     string     `json:"machine_id" yaml:"machine_id"`
	Configuration [][]string `json:"configuration" yaml:"configuration"`
	Context       exm.Context `json:"context" yaml:"context"`
	Running       bool       `json:"running" yaml:"running"`
}

// Snapshot captures m's resumable state under id. It does not capture
// Macrosteps or StateHistories: those are trace/resume-history data, not
// state needed to keep dispatching.
func Snapshot(id string, m *exm.Machine) MachineSnapshot {
	config := make([][]string, len(m.Configuration))
	for i, branch := range m.Configuration {
		config[i] = append([]string{}, branch...)
	}
	ctx := make(exm.Context, len(m.Context))
	for k, v := range m.Context {
		ctx[k] = v
	}
	return MachineSnapshot{
		MachineID:     id,
		Configuration: config,
		Context:       ctx,
		Running:       m.Running,
	}
}

// Restore rebuilds a Machine from snap against sc, without re-running entry
// actions: the active configuration and context are taken as given. A fresh
// macrostep is seeded so LastMacrostep/LastMicrosteps behave sanely on the
// restored value, but it carries no transitions of its own.
func Restore(sc *exm.Statechart, snap MachineSnapshot) (*exm.Machine, error) {
	for _, branch := range snap.Configuration {
		for _, name := range branch {
			if _, ok := sc.Node(name); !ok {
				return nil, notDefinedStateError(name)
			}
		}
	}
	return exm.Resume(sc, snap.Configuration, snap.Context, snap.Running)
}
