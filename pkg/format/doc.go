// Package format renders monetary amounts for the storefront UI using
// golang.org/x/text. Currency and locale are configuration pass-throughs;
// there is no multi-currency computation, only display formatting with a
// safe fallback for unrecognized configuration values.
package format
