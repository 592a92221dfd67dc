package models

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Role is a user's profile ("perfil").
type Role string

// Known roles.
const (
	RoleAdministrator Role = "Administrador"
	RoleCounselor     Role = "Conselheiro"
	RoleSecretary     Role = "Secretario"
	RoleSocialWorker  Role = "Assistente Social"
	RolePsychologist  Role = "Psicólogo"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleAdministrator, RoleCounselor, RoleSecretary, RoleSocialWorker, RolePsychologist}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Capability is an action a role may perform, used both for menu
// rendering and for route authorization.
type Capability string

// Known capabilities.
const (
	CapViewDashboard Capability = "view_dashboard"
	CapRegisterCase  Capability = "register_case"
	CapConsultCase   Capability = "consult_case"
	CapEditCase      Capability = "edit_case"
	CapFinalizeCase  Capability = "finalize_case"
	CapManageUsers   Capability = "manage_users"
)

var knownCapabilities = map[Capability]bool{
	CapViewDashboard: true,
	CapRegisterCase:  true,
	CapConsultCase:   true,
	CapEditCase:      true,
	CapFinalizeCase:  true,
	CapManageUsers:   true,
}

//go:embed capabilities.yaml
var defaultCapabilities []byte

// CapabilityTable maps each role to the set of actions it may perform.
type CapabilityTable struct {
	roles map[Role]map[Capability]bool
}

type capabilityFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// DefaultCapabilities returns the built-in capability table.
func DefaultCapabilities() *CapabilityTable {
	table, err := ParseCapabilities(defaultCapabilities)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded capability table: %v", err))
	}
	return table
}

// LoadCapabilities reads a capability table from a YAML file. An empty
// path yields the built-in table.
func LoadCapabilities(path string) (*CapabilityTable, error) {
	if path == "" {
		return DefaultCapabilities(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capability file %s: %w", path, err)
	}
	return ParseCapabilities(data)
}

// ParseCapabilities decodes a YAML capability table and rejects unknown
// roles or actions.
func ParseCapabilities(data []byte) (*CapabilityTable, error) {
	var file capabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse capability table: %w", err)
	}

	table := &CapabilityTable{roles: make(map[Role]map[Capability]bool, len(file.Roles))}
	for name, caps := range file.Roles {
		role := Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q in capability table", name)
		}
		set := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			capability := Capability(c)
			if !knownCapabilities[capability] {
				return nil, fmt.Errorf("unknown capability %q for role %q", c, name)
			}
			set[capability] = true
		}
		table.roles[role] = set
	}
	return table, nil
}

// Allows reports whether role may perform capability.
func (t *CapabilityTable) Allows(role Role, capability Capability) bool {
	return t.roles[role][capability]
}

// For returns the sorted capabilities granted to role.
func (t *CapabilityTable) For(role Role) []Capability {
	caps := make([]Capability, 0, len(t.roles[role]))
	for c := range t.roles[role] {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
