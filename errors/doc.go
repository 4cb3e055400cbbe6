// Package errors provides standardized error handling patterns for the
// processor network core.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input or violated
// structural invariant, non-retryable), and Fatal (unrecoverable, stop
// processing).
//
// Graph mutation invariants (duplicate identifiers, self containment,
// out-of-range indices, incompatible ports) are programmer errors and are
// always classified Invalid. Content problems encountered while loading
// many independent items (processors, connections, links) are caught per
// item, recorded, and the offending element skipped so that workspace
// loading maximizes partial recoverability.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if _, taken := owner.byIdentifier[id]; taken {
//	    return errors.ErrDuplicateIdentifier
//	}
//
// Wrap errors with context for debugging:
//
//	if err := network.AddConnection(out, in); err != nil {
//	    return errors.Wrap(err, "Network", "AddConnection", "connection setup")
//	}
//
// Check classification at recovery sites:
//
//	if err := store.Save(ctx, doc); err != nil {
//	    if errors.IsTransient(err) {
//	        // storage hiccup, safe to retry
//	    } else if errors.IsInvalid(err) {
//	        // reject the document, do not retry
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: <underlying error>"
//
// which keeps log lines grep-able and preserves the wrapped error for
// errors.Is and errors.As.
package errors
