// Package config holds the harvester settings: defaults, validation, the
// YAML configuration file and the XDG locations used for state.
package config
