// Package k8s talks to the Kubernetes API server on behalf of the enricher.
//
// The only call made is a pod GET,
//
//	GET {api}/api/v1/namespaces/{namespace}/pods/{pod}
//
// issued through a client-go clientset, from which the pod's labels and
// annotations are returned as RawPodMetadata.
//
// # Trust
//
// The API endpoint is usually reached through a local `kubectl proxy` or an
// in-cluster service address that presents a self-signed certificate, so TLS
// peer verification is disabled by default (ClientConfig.InsecureSkipTLSVerify).
// Operators who can supply a CA bundle should turn verification back on.
//
// # Failure handling
//
// Lookups are never retried here. Every failure is returned as a
// *LookupError carrying a Reason (not_found, status, decode, transport) so the
// caller can decide whether to retry on a later event.
//
// Example usage:
//
//	clientset, err := k8s.NewClientset(&k8s.ClientConfig{APIURL: "http://127.0.0.1:8001"})
//	if err != nil {
//		return err
//	}
//	client := k8s.NewPodMetadataClient(clientset, logger)
//	raw, err := client.Fetch(ctx, "default", "web-7d9f8c6b5-x2kqp")
package k8s
