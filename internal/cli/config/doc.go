// Package config defines the ccm tool configuration.
//
// Sources, lowest precedence first:
//
//   - built-in defaults
//   - ~/.ccm/config.yaml (or --config)
//   - CCM_* environment variables, e.g. CCM_START_READY_TIMEOUT
//   - command line flags
package config
