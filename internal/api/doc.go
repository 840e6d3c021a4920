// Package api serves the admin and trigger HTTP surface.
//
// Routes:
//
//	GET    /api/health
//	GET    /metrics
//	GET    /api/projects
//	GET    /api/projects/{projectID}/webhooks
//	POST   /api/projects/{projectID}/webhooks   {"url": "..."}
//	DELETE /api/projects/{projectID}/webhooks?url=...
//	POST   /api/builds/finished                 build facts JSON
//
// Everything under /api except health requires "Authorization: Bearer <token>"
// when a token is configured. DTOs use camelCase JSON tags.
package api
