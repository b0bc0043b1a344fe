// Package config persists deployment records under ~/.testdeck and loads
// them back. A record that is absent, unparseable or invalid is surfaced as
// a typed NotFound miss, never a crash: callers treat the deployment as
// non-existent.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NotFoundError reports a deployment that does not exist or whose persisted
// record could not be parsed or validated.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deployment %q not found: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("deployment %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// SSH carries the fleet's connection credentials.
type SSH struct {
	User    string `json:"user" yaml:"user"`
	Port    int    `json:"port" yaml:"port"`
	KeyPath string `json:"key_path" yaml:"key_path"`
}

// Node is one logical fleet member and the role of the instance hosting it.
type Node struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// Deployment is the persisted description of one test deployment.
type Deployment struct {
	Name             string `json:"name" yaml:"name"`
	Env              string `json:"env" yaml:"env"`
	Region           string `json:"region" yaml:"region"`
	DeployDir        string `json:"deploy_dir" yaml:"deploy_dir"`
	DistributionURL  string `json:"distribution_url" yaml:"distribution_url"`
	PrimaryRole      string `json:"primary_role" yaml:"primary_role"`
	GatewayRole      string `json:"gateway_role" yaml:"gateway_role"`
	GatewayAdminUser string `json:"gateway_admin_user" yaml:"gateway_admin_user"`
	GatewayAdminPort int    `json:"gateway_admin_port" yaml:"gateway_admin_port"`
	DaemonPort       int    `json:"daemon_port" yaml:"daemon_port"`
	SSH              SSH    `json:"ssh" yaml:"ssh"`
	Nodes            []Node `json:"nodes" yaml:"nodes"`
}

func (d *Deployment) validate() error {
	if d.Name == "" {
		return errors.New("missing name")
	}
	if d.Env == "" {
		return errors.New("missing env tag")
	}
	if d.Region == "" {
		return errors.New("missing region")
	}
	if len(d.Nodes) == 0 {
		return errors.New("no nodes defined")
	}
	return nil
}

// NodesByRole groups node names under the role of their host instances.
func (d *Deployment) NodesByRole() map[string][]string {
	byRole := make(map[string][]string)
	for _, node := range d.Nodes {
		byRole[node.Role] = append(byRole[node.Role], node.Name)
	}
	return byRole
}

// Store reads and writes deployment records below BaseDir.
type Store struct {
	BaseDir string
}

// NewStore anchors the store at ~/.testdeck.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Store{BaseDir: filepath.Join(homeDir, ".testdeck")}, nil
}

func (s *Store) deploymentDir(name string) string {
	return filepath.Join(s.BaseDir, "deployments", name)
}

// Load reads the named deployment record, accepting deployment.json or
// deployment.yaml.
func (s *Store) Load(name string) (*Deployment, error) {
	dir := s.deploymentDir(name)

	var (
		deployment Deployment
		loaded     bool
	)
	if data, err := os.ReadFile(filepath.Join(dir, "deployment.json")); err == nil {
		if err := json.Unmarshal(data, &deployment); err != nil {
			return nil, &NotFoundError{Name: name, Err: err}
		}
		loaded = true
	} else if data, err := os.ReadFile(filepath.Join(dir, "deployment.yaml")); err == nil {
		if err := yaml.Unmarshal(data, &deployment); err != nil {
			return nil, &NotFoundError{Name: name, Err: err}
		}
		loaded = true
	}
	if !loaded {
		return nil, &NotFoundError{Name: name}
	}

	if err := deployment.validate(); err != nil {
		return nil, &NotFoundError{Name: name, Err: err}
	}
	return &deployment, nil
}

// Save writes the record as JSON, creating the deployment directory on first
// save and overwriting the record on every later one.
func (s *Store) Save(d *Deployment) error {
	if err := d.validate(); err != nil {
		return fmt.Errorf("refusing to save invalid deployment: %w", err)
	}

	dir := s.deploymentDir(d.Name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create deployment directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployment: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "deployment.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	return nil
}
