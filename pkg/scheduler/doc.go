/*
Package scheduler implements priority-based preemptive admission control for
deployments onto clusters with fixed RAM/CPU/GPU capacity.

# Architecture

Three pure pieces compose into the scheduling algorithm:

	┌──────────────────────────────────────────────────────────────┐
	│                         Scheduler                             │
	│  NewDeploy(N, C)         CompleteDeploy(D, C)                 │
	└───────────────┬───────────────────────────┬──────────────────┘
	                │                           │
	   ┌────────────▼───────────┐   ┌───────────▼────────────┐
	   │     Accountant          │   │      Ledger             │
	   │  Fits / Reserve /       │   │  records original→final │
	   │  status per deployment  │   └─────────────────────────┘
	   └────────────┬────────────┘
	                │
	   ┌────────────▼────────────┐
	   │      Queue (interface)   │
	   │  RUNNING / PENDING_A/B   │
	   │  ordered sets per cluster│
	   └──────────────────────────┘

Queue is satisfied by pkg/queue's Redis-backed adapter in production and by
an in-memory fake in tests, so the preemption/backfill algorithm below can be
exercised without a live Redis.

# Admission

NewDeploy first tries the fast path (Accountant.Fits). If the cluster is
full, it drains RUNNING from the lowest priority up, releasing each victim
until either the new deployment fits or a victim already outranks it, then
always runs Backfill so any slack freed during preemption is reused.

# Backfill

Backfill drains the active Pending set in descending priority order,
promoting anything that now fits and re-queuing the rest into the other
Pending set (a double-buffer) so a single pass never re-examines an entry
it just moved.

# Completion

CompleteDeploy releases the deployment's resources, marks it Completed
directly (not through the Ledger -- completion is commanded, not inferred),
and runs Backfill.
*/
package scheduler
