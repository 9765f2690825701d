package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docmodels "trustrag/internal/document/models"
)

func TestCanAccessMatchesAllowList(t *testing.T) {
	for _, role := range AllRoles() {
		allowed := role.AllowedDomains()
		for _, d := range docmodels.AllDomains() {
			want := false
			for _, a := range allowed {
				if a == d {
					want = true
				}
			}
			assert.Equal(t, want, role.CanAccess(d), "role=%s domain=%s", role, d)
		}
	}
}

func TestAllowedDomainsTable(t *testing.T) {
	assert.Equal(t, []docmodels.Domain{"finance", "hr", "health", "public", "legal"}, RoleAdmin.AllowedDomains())
	assert.Equal(t, []docmodels.Domain{"finance", "hr", "public"}, RoleAnalyst.AllowedDomains())
	assert.Equal(t, []docmodels.Domain{"hr", "public"}, RoleManager.AllowedDomains())
	assert.Equal(t, []docmodels.Domain{"public"}, RoleEmployee.AllowedDomains())
	assert.Equal(t, []docmodels.Domain{"public"}, RoleGuest.AllowedDomains())
	assert.Empty(t, Role("root").AllowedDomains())
}

func TestAllowedDomainsReturnsCopy(t *testing.T) {
	d := RoleGuest.AllowedDomains()
	d[0] = docmodels.DomainFinance
	assert.False(t, RoleGuest.CanAccess(docmodels.DomainFinance))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Analyst ")
	require.NoError(t, err)
	assert.Equal(t, RoleAnalyst, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestRolesWithAccess(t *testing.T) {
	assert.Equal(t, []Role{RoleAdmin}, RolesWithAccess(docmodels.DomainHealth))
	assert.Equal(t, []Role{RoleAdmin, RoleAnalyst, RoleManager}, RolesWithAccess(docmodels.DomainHR))
}
