// Command buildhooks announces finished builds to registered webhooks.
//
// "buildhooks serve" runs the admin and trigger API; "buildhooks webhooks"
// edits the subscriber settings file directly; "buildhooks notify" fires a
// one-off notification for a build described on the command line.
package main
