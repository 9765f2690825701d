// Package rolemap resolves department-specific role names to canonical roles.
package rolemap

import (
	"fmt"
	"sort"
	"strings"

	"trustrag/internal/access/models"
)

// defaultTable is the compiled-in department mapping.
var defaultTable = map[string]map[string]models.Role{
	"accounting": {
		"manager":           models.RoleAnalyst,
		"senior_accountant": models.RoleAnalyst,
		"accountant":        models.RoleManager,
		"employee":          models.RoleEmployee,
		"general":           models.RoleGuest,
	},
	"finance": {
		"manager":  models.RoleAnalyst,
		"analyst":  models.RoleAnalyst,
		"employee": models.RoleEmployee,
		"general":  models.RoleGuest,
	},
	"hr": {
		"manager":       models.RoleManager,
		"hr_specialist": models.RoleAnalyst,
		"employee":      models.RoleEmployee,
		"general":       models.RoleGuest,
	},
	"legal": {
		"manager":       models.RoleAdmin,
		"legal_counsel": models.RoleAnalyst,
		"paralegal":     models.RoleManager,
		"employee":      models.RoleEmployee,
		"general":       models.RoleGuest,
	},
	"health": {
		"manager":  models.RoleAdmin,
		"doctor":   models.RoleAnalyst,
		"nurse":    models.RoleManager,
		"employee": models.RoleEmployee,
		"general":  models.RoleGuest,
	},
}

// Mapper is an immutable lookup table; it is safe for concurrent use.
type Mapper struct {
	table map[string]map[string]models.Role
}

// Default returns a Mapper over the compiled-in table.
func Default() *Mapper {
	return &Mapper{table: defaultTable}
}

// New builds a Mapper from a raw department -> role -> canonical table, as
// read from a policy file. Keys are lowercased; canonical names must be valid.
func New(raw map[string]map[string]string) (*Mapper, error) {
	table := make(map[string]map[string]models.Role, len(raw))
	for dept, roles := range raw {
		d := normalize(dept)
		if d == "" {
			return nil, fmt.Errorf("role mapping: empty department name")
		}
		inner := make(map[string]models.Role, len(roles))
		for deptRole, canonical := range roles {
			r, err := models.ParseRole(canonical)
			if err != nil {
				return nil, fmt.Errorf("role mapping %s/%s: %w", dept, deptRole, err)
			}
			inner[normalize(deptRole)] = r
		}
		table[d] = inner
	}
	return &Mapper{table: table}, nil
}

// Resolve maps (department, departmentRole) to a canonical role. Unknown
// pairs resolve to guest.
func (m *Mapper) Resolve(department, departmentRole string) models.Role {
	if roles, ok := m.table[normalize(department)]; ok {
		if r, ok := roles[normalize(departmentRole)]; ok {
			return r
		}
	}
	return models.RoleGuest
}

// Departments lists known departments alphabetically.
func (m *Mapper) Departments() []string {
	out := make([]string, 0, len(m.table))
	for d := range m.table {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// RolesFor lists the department-specific roles known for department.
func (m *Mapper) RolesFor(department string) []string {
	roles := m.table[normalize(department)]
	out := make([]string, 0, len(roles))
	for r := range roles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// AccessSummary describes what a department role ends up being allowed to read.
func (m *Mapper) AccessSummary(department, departmentRole string) Summary {
	r := m.Resolve(department, departmentRole)
	return Summary{
		Department:     normalize(department),
		DepartmentRole: normalize(departmentRole),
		Role:           r,
		AllowedDomains: r.AllowedDomains(),
		Description:    r.Description(),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
