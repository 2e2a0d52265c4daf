// Package config loads and validates the application configuration.
// Precedence is environment over file over defaults: Load starts from
// Default, overlays a YAML file when one is given, then overlays
// FLOWPIPE_* environment variables, and finally validates the merged
// result.
package config
