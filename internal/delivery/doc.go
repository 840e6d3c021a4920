// Package delivery POSTs a rendered payload to webhook destinations.
//
// The payload is serialized once per batch. Each destination gets its own
// request with a bounded timeout and yields exactly one Outcome; a failing
// destination never prevents the remaining ones from being attempted.
package delivery
