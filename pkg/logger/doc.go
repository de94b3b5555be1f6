// Package logger is a small factory over log/slog with text and JSON
// formats and functional options.
//
// Components in this module take a *slog.Logger through their own options
// and default to a discard logger, so the session manager and cart binder
// never log unless an application wires a logger in:
//
//	log := logger.New(logger.WithDevelopment("storefront"))
//	auth := session.New(cfg, session.WithLogger(log))
package logger
