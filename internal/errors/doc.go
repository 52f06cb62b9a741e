// Package errors provides coded, actionable error messages for treebridge.
//
// # Error Categories
//
//   - runtime: Bridge lifecycle errors (unknown mode, missing host)
//   - protocol: Malformed trees, frames and events
//   - transport: Producer connections and recorded streams
//   - config: Configuration file errors
//   - cli: Command-line usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "E002") that maps to a short message
// and a detailed explanation. Callers test for a code with HasCode or
// errors.Is(err, errors.New(code)).
//
// # Usage
//
//	err := errors.New(errors.CodeFrameSyncUnsupported).
//	    WithSuggestion("Run the bridge in push mode")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E002: Frame-synchronized mode unsupported
//	//
//	//   Frame-synchronized mode needs a producer that can be asked for
//	//   frames. This producer only pushes trees.
//	//
//	//   Hint: Run the bridge in push mode
package errors
