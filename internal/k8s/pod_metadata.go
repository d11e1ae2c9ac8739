package k8s

import (
	"context"
	"fmt"
	"maps"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// RawPodMetadata is the pod metadata as returned by the API server, before
// any key sanitization.
type RawPodMetadata struct {
	Labels      map[string]string
	Annotations map[string]string
}

// PodMetadataClient resolves pods into their labels and annotations.
type PodMetadataClient struct {
	clientset kubernetes.Interface
	logger    Logger
}

// NewPodMetadataClient wraps clientset. logger may be nil.
func NewPodMetadataClient(clientset kubernetes.Interface, logger Logger) *PodMetadataClient {
	return &PodMetadataClient{
		clientset: clientset,
		logger:    logger,
	}
}

// Fetch issues a single GET for the pod and returns its labels and
// annotations. Missing labels or annotations come back as empty maps.
//
// Any failure is returned as a *LookupError; Fetch does not retry.
func (c *PodMetadataClient) Fetch(ctx context.Context, namespace, pod string) (RawPodMetadata, error) {
	if namespace == "" || pod == "" {
		return RawPodMetadata{}, &LookupError{
			Namespace: namespace,
			Pod:       pod,
			Reason:    ReasonStatus,
			Err:       fmt.Errorf("namespace and pod name are required"),
		}
	}

	obj, err := c.clientset.CoreV1().Pods(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		lookupErr := newLookupError(namespace, pod, err)
		c.debug("Pod lookup failed",
			"namespace", namespace,
			"pod", pod,
			"reason", string(lookupErr.Reason))
		return RawPodMetadata{}, lookupErr
	}

	c.debug("Pod lookup succeeded", "namespace", namespace, "pod", pod)

	raw := RawPodMetadata{
		Labels:      maps.Clone(obj.Labels),
		Annotations: maps.Clone(obj.Annotations),
	}
	if raw.Labels == nil {
		raw.Labels = map[string]string{}
	}
	if raw.Annotations == nil {
		raw.Annotations = map[string]string{}
	}
	return raw, nil
}

func (c *PodMetadataClient) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
