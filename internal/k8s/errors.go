package k8s

import (
	"errors"
	"fmt"
	"net/url"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// LookupReason classifies why a pod lookup produced no metadata.
type LookupReason string

const (
	// ReasonNotFound means the API server answered 404 for the pod.
	ReasonNotFound LookupReason = "not_found"
	// ReasonStatus means the API server answered with another non-success status.
	ReasonStatus LookupReason = "status"
	// ReasonDecode means a success response carried a body that could not be parsed.
	ReasonDecode LookupReason = "decode"
	// ReasonTransport means the request never produced a response.
	ReasonTransport LookupReason = "transport"
)

// ErrPodLookup is matched by every *LookupError.
var ErrPodLookup = errors.New("pod lookup failed")

// LookupError describes a failed pod lookup.
type LookupError struct {
	Namespace  string
	Pod        string
	Reason     LookupReason
	StatusCode int32
	Err        error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pod %s/%s lookup failed (%s, status %d): %v", e.Namespace, e.Pod, e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("pod %s/%s lookup failed (%s): %v", e.Namespace, e.Pod, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is matches ErrPodLookup.
func (e *LookupError) Is(target error) bool {
	return target == ErrPodLookup
}

// newLookupError classifies an error returned by client-go.
func newLookupError(namespace, pod string, err error) *LookupError {
	le := &LookupError{Namespace: namespace, Pod: pod, Err: err}

	var status apierrors.APIStatus
	var urlErr *url.Error
	switch {
	case apierrors.IsNotFound(err):
		le.Reason = ReasonNotFound
		le.StatusCode = 404
	case errors.As(err, &status):
		le.Reason = ReasonStatus
		le.StatusCode = status.Status().Code
	case errors.As(err, &urlErr):
		le.Reason = ReasonTransport
	default:
		le.Reason = ReasonDecode
	}
	return le
}

// IsNotFound reports whether err is a lookup of a pod that does not exist.
func IsNotFound(err error) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Reason == ReasonNotFound
}
