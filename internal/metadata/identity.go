package metadata

import (
	"path"
	"regexp"
	"strings"
)

const (
	logFileSuffix = ".log"

	// sandboxContainerPrefix marks the pause/infra container of a pod.
	sandboxContainerPrefix = "POD-"
)

// instanceSuffixRegex matches the trailing instance suffix kubelet and
// controllers append to pod and container names.
var instanceSuffixRegex = regexp.MustCompile(`-[0-9a-z]*$`)

// WorkloadIdentity is the identity of a container recovered from its log path.
type WorkloadIdentity struct {
	ReplicationController string `json:"replication_controller"`
	Pod                   string `json:"pod"`
	Namespace             string `json:"namespace"`
	Container             string `json:"container"`
	ContainerID           string `json:"container_id"`
}

// ParsePath derives a WorkloadIdentity from a log file path.
//
// The second return value is false when the path does not name an
// application container log. Paths with an empty pod, namespace or container
// segment are rejected. ParsePath never panics, whatever the input.
func ParsePath(key string) (WorkloadIdentity, bool) {
	name := strings.TrimSuffix(path.Base(key), logFileSuffix)

	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return WorkloadIdentity{}, false
	}
	podName, namespace, containerPart := parts[0], parts[1], parts[2]
	if podName == "" || namespace == "" || containerPart == "" {
		return WorkloadIdentity{}, false
	}
	if strings.HasPrefix(containerPart, sandboxContainerPrefix) {
		return WorkloadIdentity{}, false
	}

	return WorkloadIdentity{
		ReplicationController: stripInstanceSuffix(podName),
		Pod:                   podName,
		Namespace:             namespace,
		Container:             stripInstanceSuffix(containerPart),
		ContainerID:           lastToken(containerPart),
	}, true
}

func stripInstanceSuffix(s string) string {
	return instanceSuffixRegex.ReplaceAllString(s, "")
}

// lastToken returns the final non-empty "-" delimited token of s.
func lastToken(s string) string {
	trimmed := strings.TrimRight(s, "-")
	if i := strings.LastIndex(trimmed, "-"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
