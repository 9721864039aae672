// Package config loads the service configuration from a YAML file with
// PRAZOS_* environment overrides.
//
// Sections:
//   - server: http_port (8080), grpc_port (50051, 0 disables), auth
//   - calendar: source sql|file, file, window_factor (4), database{driver, dsn}
//   - advisor: enabled, model, api_key_env, timeout (8s), rate_per_minute, burst
//   - log: level debug|info|warn|error
//
// Secrets are never stored in the file: auth.secret_env, auth.key_env and
// advisor.api_key_env name the environment variables that hold them.
//
// Load(path) applies defaults before unmarshalling, then environment
// overrides, then validates.
package config
