// Package kvo provides the key-value-observing building block used by
// generated (and hand-written) host objects: a typed property that holds a
// value, accepts new values through a single Update entry point, and reports
// the previous value to a host-supplied Notifier after every change.
//
// A Property is not safe for concurrent use. Its update guard only detects
// re-entrant updates from the same call chain, for example a subscriber that
// calls Update on the property that is currently notifying it.
package kvo
