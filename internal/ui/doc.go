// Package ui is bojq's Bubble Tea terminal interface.
//
// The model never owns queue state. Every tick it copies the coordinator's
// snapshot through Backend.Snapshot, and every action (add, delete, generate,
// run-next, refresh) runs as a tea.Cmd against the Backend, after which a
// fresh snapshot is fetched. Long calls therefore never block rendering.
//
// # Views
//
//   - Queue: problems ordered waiting → processing → completed → failed
//   - Code: last generated or cached solution with its sources
//   - Logs: tail of the log file, optionally filtered to the selected problem
//
// # Keys
//
//	a add · g generate id · enter generate selected · d delete · n run next
//	r refresh · c copy · s save · l logs · f filter logs · T theme · ? help · q quit
//
// The status line shows the outcome of the last action. Data errors from the
// backend are shown verbatim; transport errors are marked as transient. After
// two consecutive failed refreshes the header shows OFFLINE while the last
// good queue stays on screen.
//
// The theme choice and recently generated ids persist in prefs.toml.
package ui
