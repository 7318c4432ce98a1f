// Package health runs connectivity checks against the control plane's
// dependencies (Postgres, Redis) each time /healthz is requested and
// aggregates them into the result it reports.
package health
