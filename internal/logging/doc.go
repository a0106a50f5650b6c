// Package logging builds the slog loggers used across absync: a compact
// console handler for interactive runs, a JSON handler for machine-readable
// logs, multi-writer output to stdout plus the configured log directory, and
// the standardized field keys shared by every component.
package logging
