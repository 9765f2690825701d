package rolemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
)

func TestResolveDefaultTable(t *testing.T) {
	m := Default()
	tests := []struct {
		department, role string
		want             models.Role
	}{
		{"accounting", "senior_accountant", models.RoleAnalyst},
		{"accounting", "accountant", models.RoleManager},
		{"finance", "manager", models.RoleAnalyst},
		{"hr", "manager", models.RoleManager},
		{"hr", "hr_specialist", models.RoleAnalyst},
		{"legal", "manager", models.RoleAdmin},
		{"legal", "paralegal", models.RoleManager},
		{"health", "doctor", models.RoleAnalyst},
		{"health", "nurse", models.RoleManager},
		{"health", "general", models.RoleGuest},
		{"  HEALTH ", " Manager", models.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.department+"/"+tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Resolve(tt.department, tt.role))
		})
	}
}

func TestResolveUnknownIsGuest(t *testing.T) {
	m := Default()
	assert.Equal(t, models.RoleGuest, m.Resolve("marketing", "manager"))
	assert.Equal(t, models.RoleGuest, m.Resolve("hr", "ceo"))
	assert.Equal(t, models.RoleGuest, m.Resolve("", ""))
}

func TestNewFromRawTable(t *testing.T) {
	m, err := New(map[string]map[string]string{
		"Research": {"Lead": "analyst"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAnalyst, m.Resolve("research", "lead"))
	assert.Equal(t, []string{"research"}, m.Departments())

	_, err = New(map[string]map[string]string{"x": {"y": "root"}})
	assert.Error(t, err)
}

func TestAccessSummary(t *testing.T) {
	s := Default().AccessSummary("legal", "paralegal")
	assert.Equal(t, models.RoleManager, s.Role)
	assert.Equal(t, []docmodels.Domain{docmodels.DomainHR, docmodels.DomainPublic}, s.AllowedDomains)
	assert.Equal(t, "access to hr and public domains", s.Description)
	assert.Equal(t, []string{"employee", "general", "legal_counsel", "manager", "paralegal"}, Default().RolesFor("legal"))
}
