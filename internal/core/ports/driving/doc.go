// Package driving defines the primary ports through which the CLI, the MCP
// server and the review TUI drive the core. Each interface is implemented
// by a service in internal/core/services.
package driving
