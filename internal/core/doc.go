// Package core is the tabular view engine behind the upload-and-browse UI.
//
// It holds no HTTP code and can be driven by the web server, the CLI or
// tests without modification.
//
// # Data Flow
//
//  1. An upload is decoded by [Decode] (CSV or xlsx) into a [Dataset].
//  2. The [Store] keeps exactly one current Dataset; a failed decode resets it.
//  3. Each UI update is a [Cycle] of fired triggers. [Resolve] picks one
//     action and [Engine.Update] applies it with [Project] or [Sort].
//  4. The resulting [View] goes back to the caller, who hands it in again on
//     the next cycle.
//
// # Trigger Priority
//
// Submit beats sort. A sort only re-orders the view already on screen and
// never re-reads the Dataset. Anything else passes the current view through
// unchanged, or yields the empty view when nothing is shown.
//
// # Decoding
//
// The decoder is chosen from the filename: "csv" anywhere in the name picks
// CSV, otherwise "xls" picks the spreadsheet reader. Column kinds are
// inferred per column (null, bool, number, text); a column with mixed kinds
// is text.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FILE001-FILE007: upload and decode failures
//   - VIEW001-VIEW003: selection, sort and export failures
//   - UPL002-UPL005: busy, cancelled and timed-out requests
package core
