// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and per-logger level overrides,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Services take a context and pull the logger from it, so component names and
// fields such as the simulator run id follow every log line.
package logger
