package config

// Version constants for client configuration manifests.
const (
	// APIVersion is the Kubernetes-style API version of ClientConfig manifests.
	APIVersion = "codestream.altairalabs.ai/v1alpha1"

	// KindClientConfig is the manifest kind accepted by LoadClientConfig.
	KindClientConfig = "ClientConfig"
)
