// Package subscribers keeps the durable mapping from project identifier to
// the webhook URLs that receive its build notifications.
//
// The mapping lives in one JSON file (webhooks.json) shaped as
// {"projectId": ["http://hook1", "http://hook2"]}. Every mutation rewrites the
// whole file atomically while holding both the in-process mutex and an
// advisory lock on "<file>.lock", so the CLI and a running server can edit
// the same file without losing each other's updates.
package subscribers
