// Package config handles loading and validating statebridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required sections per run mode
//   - Default value handling
//
// Validation is split by run mode: ValidateLive and ValidateBackfill
// check the sections the selected mode actually requires, and both run
// before any pipeline work starts. A missing or malformed required
// section is fatal.
//
// Security Considerations:
//   - Sensitive values (tokens, passwords) should be set via environment
//     variables rather than the config file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/statebridge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ValidateLive(); err != nil {
//	    log.Fatal(err)
//	}
package config
