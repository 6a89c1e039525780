// Package logx configures flowbber's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional events sink (min-level + rate limited) for run outcomes
package logx
