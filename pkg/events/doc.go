// Package events broadcasts deployment status transitions to any number of
// subscribers, decoupling the HTTP handlers that run a scheduling pass from
// whatever wants to observe its outcome (an SSE stream, a log sink, tests).
package events
