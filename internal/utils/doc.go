// Package utils hosts shared infrastructure helpers: the zap logger factory
// and the viper-backed configuration loader used by the CLI entrypoint.
package utils
