// Package config loads, normalizes, and validates the absync configuration.
//
// Configuration is TOML with environment-variable fallbacks for server
// credentials; a .env file in the working directory is honored. All required
// values are checked before a run starts so a misconfigured tool exits
// immediately rather than failing mid-pipeline.
package config
