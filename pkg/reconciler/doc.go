/*
Package reconciler periodically re-derives each cluster's available
capacity from the deployments actually marked Running in the Store and
repairs any drift it finds.

The scheduler (pkg/scheduler) is the only writer of Cluster.AvailRAM/
AvailCPU/AvailGPU during normal operation, and it always updates them in
the same transaction as the deployment status changes that caused them
(pkg/storage's UpdateClusterAvailability). Drift should not happen. It
can anyway: a crash between two non-transactional writes against an
older schema, a manual SQL fixup, a restore from a stale backup. The
reconciler is the backstop that notices and fixes it rather than
letting available capacity silently diverge from reality.

Like pkg/scheduler, it is stateless between cycles: every pass recomputes
the expected available capacity from scratch and compares it to what's
stored, so a missed or crashed cycle is harmless and the next one
converges regardless.
*/
package reconciler
