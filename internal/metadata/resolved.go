package metadata

import "maps"

// Field names of a resolved record as attached to events.
const (
	FieldReplicationController = "replication_controller"
	FieldPod                   = "pod"
	FieldNamespace             = "namespace"
	FieldContainer             = "container"
	FieldContainerID           = "container_id"
	FieldLabels                = "labels"
	FieldAnnotations           = "annotations"
	FieldLogFormatStdout       = "log_format_stdout"
	FieldLogFormatStderr       = "log_format_stderr"
)

// Resolved is the enriched metadata of one log source.
//
// A Resolved is built once and then shared through the metadata cache; it
// must not be modified after construction. Use Fields to obtain a copy that
// can be handed to callers.
type Resolved struct {
	WorkloadIdentity

	Labels          map[string]string `json:"labels"`
	Annotations     map[string]string `json:"annotations"`
	LogFormatStdout string            `json:"log_format_stdout"`
	LogFormatStderr string            `json:"log_format_stderr"`
}

// NewResolved assembles a record from a parsed identity and the raw labels
// and annotations of its pod. Keys are sanitized before the log formats are
// resolved, so format annotations are matched on their sanitized names.
func NewResolved(id WorkloadIdentity, labels, annotations map[string]string, defaultFormat string) *Resolved {
	sanitizedAnnotations := SanitizeKeys(annotations)
	formats := ResolveLogFormats(sanitizedAnnotations, id.Container, defaultFormat)

	return &Resolved{
		WorkloadIdentity: id,
		Labels:           SanitizeKeys(labels),
		Annotations:      sanitizedAnnotations,
		LogFormatStdout:  formats.Stdout,
		LogFormatStderr:  formats.Stderr,
	}
}

// Fields returns the record as a freshly allocated map. The label and
// annotation maps are copied as well.
func (r *Resolved) Fields() map[string]any {
	return map[string]any{
		FieldReplicationController: r.ReplicationController,
		FieldPod:                   r.Pod,
		FieldNamespace:             r.Namespace,
		FieldContainer:             r.Container,
		FieldContainerID:           r.ContainerID,
		FieldLabels:                stringMapToAny(r.Labels),
		FieldAnnotations:           stringMapToAny(r.Annotations),
		FieldLogFormatStdout:       r.LogFormatStdout,
		FieldLogFormatStderr:       r.LogFormatStderr,
	}
}

// Equal reports whether r and other carry the same content.
func (r *Resolved) Equal(other *Resolved) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.WorkloadIdentity == other.WorkloadIdentity &&
		r.LogFormatStdout == other.LogFormatStdout &&
		r.LogFormatStderr == other.LogFormatStderr &&
		maps.Equal(r.Labels, other.Labels) &&
		maps.Equal(r.Annotations, other.Annotations)
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
