// Package logger builds the server's log/slog loggers.
//
// Link secrets (lgs_) and issuer secrets (lgk_) are partially masked
// wherever they appear as attribute values. Verification codes and owner
// contacts are fully redacted by key. URL paths carrying a secret can be
// cleaned with RedactPath before logging.
//
// Loggers returned by New add request_id to any record logged with a
// context that went through WithRequestID, so handlers should prefer the
// *Context logging methods.
package logger
