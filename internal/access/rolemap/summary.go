package rolemap

import (
	"trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
)

// Summary is the resolved access profile of a department role.
type Summary struct {
	Department     string             `json:"department"`
	DepartmentRole string             `json:"department_role"`
	Role           models.Role        `json:"canonical_role"`
	AllowedDomains []docmodels.Domain `json:"allowed_domains"`
	Description    string             `json:"description"`
}
