// Package config defines patrol's configuration and loads it through
// viper. Precedence, lowest to highest: built-in defaults, the config
// file at $XDG_CONFIG_HOME/patrol/config.yaml, PATROL_* environment
// variables, then command-line flags.
package config
