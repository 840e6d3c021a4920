// Package notifications runs the build-finished pipeline: gather build
// details from the host, resolve artifact locations, render the payload and
// deliver it to every subscriber registered for the project.
//
// Notify is one-shot and synchronous. Nothing it does is allowed to fail the
// caller: collaborator errors degrade the payload, delivery failures are
// reported per destination, and panics are recovered and logged.
package notifications
