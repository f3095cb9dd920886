// Package config loads and validates server configuration.
//
// Configuration is YAML with ${VAR} environment variable substitution.
// Loading is split into three layers:
//   - Load: parse only
//   - LoadWithDefaults: parse + fill optional fields
//   - LoadAndValidate: parse + defaults + validation
package config
