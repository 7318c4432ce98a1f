package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperctl/hypervisor/pkg/types"
)

// keySeparator joins the nine serialized fields of a deployment queue key.
const keySeparator = "|"

// Key serializes a deployment into the string form stored as the member of
// a Queue ordered set; the set's score is d.Priority. Field order and count
// are a fixed wire contract -- nine pipe-joined fields: id | image_path |
// cpu_required | ram_required | gpu_required | priority | cluster_id |
// status | name.
func Key(d *types.Deployment) string {
	return strings.Join([]string{
		d.ID,
		d.ImagePath,
		strconv.Itoa(d.CPURequired),
		strconv.Itoa(d.RAMRequired),
		strconv.Itoa(d.GPURequired),
		strconv.FormatInt(d.Priority, 10),
		d.ClusterID,
		string(d.Status),
		d.Name,
	}, keySeparator)
}

// ParseKey reverses Key. It returns ErrInvariantViolation if key does not
// split into exactly nine fields or any integer field fails to parse --
// both conditions are a programmer/data bug, never a runtime possibility
// under normal operation.
func ParseKey(key string) (*types.Deployment, error) {
	fields := strings.Split(key, keySeparator)
	if len(fields) != 9 {
		return nil, fmt.Errorf("%w: queue key %q has %d fields, want 9", ErrInvariantViolation, key, len(fields))
	}

	cpuReq, err1 := strconv.Atoi(fields[2])
	ramReq, err2 := strconv.Atoi(fields[3])
	gpuReq, err3 := strconv.Atoi(fields[4])
	priority, err4 := strconv.ParseInt(fields[5], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, fmt.Errorf("%w: queue key %q has a malformed integer field", ErrInvariantViolation, key)
	}

	return &types.Deployment{
		ID:          fields[0],
		ImagePath:   fields[1],
		CPURequired: cpuReq,
		RAMRequired: ramReq,
		GPURequired: gpuReq,
		Priority:    priority,
		ClusterID:   fields[6],
		Status:      types.DeploymentStatus(fields[7]),
		Name:        fields[8],
	}, nil
}
