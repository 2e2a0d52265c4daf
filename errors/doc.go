// Package errors provides the standardized error handling framework used
// across FlowPipe packages.
//
// # Error Classification
//
// Errors fall into three classes that drive handling decisions:
//
//   - Transient: temporary failures worth retrying (connection loss, timeouts)
//   - Invalid: malformed input or configuration (never retried)
//   - Fatal: unrecoverable conditions that should stop processing
//
// # Wrapping Convention
//
// All wrapped errors follow the pattern "component.method: action failed: %w"
// so log lines and error chains read consistently:
//
//	if err := snk.Bind(tok); err != nil {
//	    return errors.WrapInvalid(err, "Mailbox", "Bind", "token registration")
//	}
//
// Setup failures surfaced by exec (invalid stage, invalid sink, invalid
// trace) are second-class only in the sense that they abort before any
// construction; they are regular classified errors here.
package errors
