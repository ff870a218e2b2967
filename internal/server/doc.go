// Package server implements pullconfd: it loads host and group
// declarations, compiles each host's catalog, and serves the result over
// authenticated HTTPS with ETag-based conditional requests. A SIGHUP
// triggers an atomic recompile; a failed reload keeps serving the
// previous generation.
package server
