// Package harness runs scenario files against the todo application.
//
// A scenario drives the page façade through a sequence of actions and, after
// every step, has the oracle confirm that the rendered view and the persisted
// snapshot agree with each other and with the step's expectation.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: complete_item
//	description: "Toggling an item marks it completed on both sides"
//	faults: [missing_marker]        # optional, memory driver only
//	setup:
//	  - action: add_item
//	    args: { text: "Complete me" }
//	steps:
//	  - action: toggle
//	    args: { index: 0 }
//	    expect:
//	      total: 1
//	      completed: 1
//	      completed_at: { 0: true }
//	  - action: toggle
//	    args: { index: 5 }
//	    error: precondition
//
// # Actions
//
//   - add_item {text}
//   - edit_first {text}, edit {index, text}
//   - toggle {index}, toggle_all {}
//   - delete {index} or delete {text}
//   - clear_completed {}
//   - filter {status: all|active|completed}
//
// # Expectations
//
// An expect block may set total, completed, visible, last_text, present,
// absent, completed_texts and completed_at. Counts and texts are checked on
// the persisted snapshot and, where the current filter lets the view show
// them, on the rendered view. A cross-check of the two sides always runs.
//
// # Deterministic Traces
//
// Every step is numbered by a testutil.DeterministicClock and recorded with
// the persisted snapshot after it. Traces encode to canonical JSON, so the
// same scenario produces byte-identical golden files across runs and
// drivers.
//
// # Usage
//
//	sc, err := harness.LoadScenario("scenarios/complete_item.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, sc, opener, harness.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
