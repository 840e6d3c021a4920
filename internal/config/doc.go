// Package config loads the buildhooks TOML configuration.
//
// Load layers a file over Default, expands "~" and relative paths, anchors
// bare settings file names in the config directory, and applies the
// BUILDHOOKS_SERVER_URL and BUILDHOOKS_API_TOKEN fallbacks before Validate
// runs. Unknown keys are rejected.
package config
