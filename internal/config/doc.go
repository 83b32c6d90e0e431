// Package config defines the application's configuration structure and
// loading. Values come from environment variables with the TOEIC_ prefix
// (e.g. TOEIC_DATABASE_URL) or an optional config.yaml, and are validated
// with struct tags before use.
package config
