// Package config holds the audit configuration: CLI-populated settings,
// validation, and the optional .pixelaudit YAML file with per-site request
// overrides.
package config
