// Package inventory enumerates the deployment's cloud resources and reports
// them as plain descriptors carrying the provider's raw state string. State
// interpretation happens in the status package, not here.
package inventory

import "context"

// Instance describes one compute instance.
type Instance struct {
	ID        string
	State     string
	PublicIP  string
	PrivateIP string
	Role      string
	Tags      map[string]string
}

// Stack describes one infrastructure stack.
type Stack struct {
	Name  string
	State string
	Tags  map[string]string
}

// FileSystem describes one shared volume.
type FileSystem struct {
	ID    string
	Name  string
	State string
	Tags  map[string]string
}

// Source is the provider inventory consumed by the directory and status
// layers.
type Source interface {
	// Instances lists instances tagged for the environment. When
	// runningOnly is set, only instances in the provider's running state
	// are returned.
	Instances(ctx context.Context, envTag string, runningOnly bool) ([]Instance, error)
	Stacks(ctx context.Context, envTag string) ([]Stack, error)
	FileSystems(ctx context.Context, envTag string) ([]FileSystem, error)
}
