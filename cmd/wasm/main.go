//go:build js && wasm

// Command wasm exposes the pitch engine to the browser via WebAssembly.
// After loading, it registers a global JavaScript function:
//
//	runPitchEngine(jsonString) -> jsonString
//
// The input and output are JSON-encoded SessionInput and SessionLog
// respectively, the same contract the CLI uses.
package main

import (
	"syscall/js"

	"github.com/cxd309/pitch-engine/internal/engine"
)

func main() {
	js.Global().Set("runPitchEngine", js.FuncOf(runPitchEngine))
	select {}
}

func runPitchEngine(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no input provided"}
	}

	result, err := engine.RunJSON(args[0].String(), engine.WithWorkers(1))
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}
