// =============================================================================
// CSV Reconciler - Main Entry Point
// =============================================================================
//
// This is the main entry point for the CSV Reconciler. It delegates command
// execution to the cmd package.
//
// USAGE:
//   reconciler reconcile  - Compare a fin and an spo file
//   reconciler serve      - Run the HTTP upload service
//   reconciler validate   - Check both files without reconciling
//   reconciler version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core business logic (not for external import)
//   - pkg/           : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csv-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
