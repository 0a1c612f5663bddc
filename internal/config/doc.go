// Package config loads and validates the tracker's YAML configuration, and
// watches the file for changes so the default spot-count threshold can be
// adjusted live without a restart.
package config
