// Package logging builds the zap loggers used by every command.
//
// Output goes to stderr. The console encoder is used on terminals and the
// JSON encoder everywhere else, so cron and container runs produce
// machine-readable lines.
package logging
