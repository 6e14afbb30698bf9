// Package config provides configuration management for ark.
package config

// Default configuration values for ark.
const (
	// DefaultRetentionDays is the default number of days to keep archived manifests.
	DefaultRetentionDays = 90

	// DefaultBatchSize is the number of copied files between progress events.
	DefaultBatchSize = 5

	// DefaultLogMaxSize is the size that triggers log rotation.
	DefaultLogMaxSize = "10MB"
)
