// Package shutdown provides graceful shutdown for LinkGate.
//
// This package handles process signals:
//
//   - SIGINT and SIGTERM start shutdown
//   - SIGHUP runs reload callbacks (issuer keys)
//   - Named hooks run in reverse registration order under a shared timeout
//
// Usage:
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	return h.Wait(ctx)
//
// @design DS-0501
package shutdown
