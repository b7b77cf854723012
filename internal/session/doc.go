// Package session wires the coordinator, dispatcher and archive into the
// actions a user can take. The CLI, the TUI and the scheduler all go through a
// Session, so every path archives results and refreshes the queue the same
// way.
//
// Each Generate and RunNext call gets a request id that tags every log line
// it produces. A refresh failure after an action is recorded on the snapshot
// and never hides the action's own result.
package session
