/*
Package types defines the domain model shared across the control plane:
users, organizations, clusters, and deployments.

Cluster and Deployment carry the resource-accounting fields the scheduler
operates on (pkg/scheduler); User and Organization exist only so the HTTP
layer (pkg/api) has something to authenticate and authorize against.
*/
package types
