// Command demo builds a small hierarchical order-processing statechart and
// runs it through a simulated event sequence, exercising every layer of the
// ambient stack: structured logging, Prometheus metrics, and a snapshot +
// visualization dump at the end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ethan/exm"
	"github.com/ethan/exm/internal/persistence"
	"github.com/ethan/exm/internal/telemetry"
	"github.com/ethan/exm/internal/visualization"
)

func main() {
	def := defineOrderFlow()
	sc, err := exm.Build(def)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}

	machineID := uuid.NewString()
	logger := telemetry.NewSlogLogger(slog.Default().With("machine_id", machineID))
	ctx := context.Background()

	m, err := exm.Init(sc, exm.NewContext().Put("balance", 100))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("machine %s started at %v\n", machineID, m.ActiveStates())

	// "executed" is raised internally by the approved-state entry action and
	// drained before Dispatch("authorize") returns, so it never appears here.
	events := []string{"submit", "authorize", "unknown_event", "release"}
	for _, name := range events {
		m, err = telemetry.DispatchWithLogging(ctx, logger, m, exm.NewEvent(name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "dispatch %q: %v\n", name, err)
			break
		}
		fmt.Printf("after %q: %v (running=%v)\n", name, m.ActiveStates(), m.Running)
	}

	if _, err := telemetry.DispatchWithLogging(ctx, logger, m, exm.NewEvent("submit")); err != nil {
		fmt.Printf("expected error dispatching on a completed machine: %v\n", err)
	}

	snap := persistence.Snapshot(machineID, m)
	yamlPersister, err := persistence.NewYAMLPersister(os.TempDir())
	if err == nil {
		if err := yamlPersister.Save(snap); err == nil {
			fmt.Printf("snapshot written to %s/%s.yaml\n", os.TempDir(), machineID)
		}
	}

	fmt.Println()
	fmt.Println("=== Graphviz DOT ===")
	fmt.Println(visualization.ToDOT(sc, m.ActiveStates()))
}

// defineOrderFlow builds a three-stage order pipeline: AUTHORIZING is a
// composite with its own VALIDATING/APPROVED substates, mirroring the
// nested FIAT/HEDGE/CRYPTO staging of the flow this demo is adapted from.
func defineOrderFlow() exm.Definition {
	authorizing := exm.NewComposite("validating").
		Sub("validating", exm.NewSimple().
			On("authorize", exm.To("approved").WithGuard(func(c exm.Context) bool {
				balance, _ := c.Get("balance", 0).(int)
				return balance >= 0
			})).
			Build()).
		Sub("approved", exm.NewSimple().
			OnEntry(func(c exm.Context) exm.Context { return c.RaiseEvent(exm.NewEvent("executed")) }).
			Build()).
		On("executed", exm.To("fulfilling")).
		Build()

	return exm.NewComposite("submitted").
		Sub("submitted", exm.NewSimple().
			On("submit", exm.To("authorizing")).
			Build()).
		Sub("authorizing", authorizing).
		Sub("fulfilling", exm.NewSimple().
			OnEntry(func(c exm.Context) exm.Context { return c.Put("fulfilled", true) }).
			On("release", exm.To("closed")).
			Build()).
		Sub("closed", exm.NewFinal().
			OnEntry(func(c exm.Context) exm.Context { return c.Put("closed_at", "now") }).
			Build()).
		Build()
}
