// Package log provides structured logging for the control plane via zerolog.
//
// Init configures the global Logger once at process start; WithComponent
// and the other With* helpers derive child loggers that tag every line with
// a request- or entity-scoped field.
package log
