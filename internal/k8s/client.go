package k8s

import (
	"fmt"
	"net/url"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// ClientConfig holds the connection settings for the Kubernetes API.
type ClientConfig struct {
	// APIURL is the base URL of the API server. Ignored when InCluster is set.
	APIURL string

	// BearerToken is attached as "Authorization: Bearer <token>" when set.
	BearerToken string

	// BearerTokenFile is re-read periodically by client-go, so rotated
	// service account tokens keep working. BearerToken takes precedence.
	BearerTokenFile string

	// InCluster uses the service account host, CA and token of the pod.
	InCluster bool

	// InsecureSkipTLSVerify disables verification of the API server
	// certificate. Any configured CA is dropped when set.
	InsecureSkipTLSVerify bool

	// Performance settings
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	UserAgent string

	// Logging
	Logger Logger
}

// Logger interface for client logging (simple version for now).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// RESTConfig builds the client-go configuration described by c.
func (c *ClientConfig) RESTConfig() (*rest.Config, error) {
	if c == nil {
		return nil, fmt.Errorf("client configuration is required")
	}

	var restConfig *rest.Config
	if c.InCluster {
		inCluster, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
		restConfig = inCluster
	} else {
		apiURL := c.APIURL
		if apiURL == "" {
			apiURL = DefaultAPIURL
		}
		if err := ValidateAPIURL(apiURL); err != nil {
			return nil, err
		}
		restConfig = &rest.Config{Host: apiURL}
	}

	if c.BearerToken != "" {
		restConfig.BearerToken = c.BearerToken
		restConfig.BearerTokenFile = ""
	} else if c.BearerTokenFile != "" {
		restConfig.BearerTokenFile = c.BearerTokenFile
	}

	if c.InsecureSkipTLSVerify {
		restConfig.TLSClientConfig.Insecure = true
		restConfig.TLSClientConfig.CAFile = ""
		restConfig.TLSClientConfig.CAData = nil
	}

	restConfig.QPS = c.QPSLimit
	if restConfig.QPS == 0 {
		restConfig.QPS = DefaultQPSLimit
	}
	restConfig.Burst = c.BurstLimit
	if restConfig.Burst == 0 {
		restConfig.Burst = DefaultBurstLimit
	}
	restConfig.Timeout = c.Timeout

	restConfig.UserAgent = c.UserAgent
	if restConfig.UserAgent == "" {
		restConfig.UserAgent = DefaultUserAgent
	}

	return restConfig, nil
}

// NewClientset creates a clientset for the configured API server.
func NewClientset(config *ClientConfig) (kubernetes.Interface, error) {
	restConfig, err := config.RESTConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	if config.Logger != nil {
		config.Logger.Info("Kubernetes client configured",
			"in_cluster", config.InCluster,
			"insecure_skip_tls_verify", config.InsecureSkipTLSVerify,
			"bearer_token", config.BearerToken != "" || config.BearerTokenFile != "")
	}

	return clientset, nil
}

// ValidateAPIURL checks that apiURL is an absolute http or https URL.
func ValidateAPIURL(apiURL string) error {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", apiURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid API URL %q: scheme must be http or https", apiURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid API URL %q: missing host", apiURL)
	}
	return nil
}
