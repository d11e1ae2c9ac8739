package k8s

import "time"

const (
	// DefaultAPIURL is the address of a local `kubectl proxy`.
	DefaultAPIURL = "http://127.0.0.1:8001"

	// Service account paths - default Kubernetes in-cluster locations
	DefaultServiceAccountPath = "/var/run/secrets/kubernetes.io/serviceaccount"
	DefaultTokenPath          = DefaultServiceAccountPath + "/token"

	// Default performance settings
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30

	// DefaultTimeout of zero leaves request deadlines to the transport.
	DefaultTimeout time.Duration = 0

	// DefaultUserAgent identifies enricher requests in API server audit logs.
	DefaultUserAgent = "log-enricher"
)
