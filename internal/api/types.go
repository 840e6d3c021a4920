package api

// WebhooksResponse lists one project's subscriber URLs.
type WebhooksResponse struct {
	ProjectID string   `json:"projectId"`
	URLs      []string `json:"urls"`
}

// ProjectsResponse lists every project with at least one subscriber.
type ProjectsResponse struct {
	Projects []WebhooksResponse `json:"projects"`
}

// AddWebhookRequest is the POST body for registering a subscriber.
type AddWebhookRequest struct {
	URL string `json:"url"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status       string `json:"status"`
	SettingsFile string `json:"settingsFile,omitempty"`
	Projects     int    `json:"projects"`
}

// ErrorResponse is returned with every 4xx/5xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
