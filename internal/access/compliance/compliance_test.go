package compliance

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustrag/internal/access/models"
	"trustrag/internal/access/service"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
)

type recordingAudit struct {
	events []audit.AccessEvent
}

func (r *recordingAudit) LogAccess(_ context.Context, e audit.AccessEvent) error {
	r.events = append(r.events, e)
	return nil
}

func newChecker(t *testing.T) (*Checker, *recordingAudit) {
	t.Helper()
	rec := &recordingAudit{}
	validator, err := service.New(rec)
	require.NoError(t, err)
	c, err := New(validator, rec, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return c, rec
}

func TestParseFramework(t *testing.T) {
	assert.Equal(t, FrameworkHIPAA, ParseFramework("HIPAA"))
	assert.Equal(t, FrameworkSOX, ParseFramework(" sox "))
	assert.Equal(t, FrameworkGeneral, ParseFramework("pci"))
	assert.Equal(t, FrameworkGeneral, ParseFramework(""))
}

func TestPermits(t *testing.T) {
	cases := map[Framework][]docmodels.Domain{
		FrameworkHIPAA:    {docmodels.DomainHealth, docmodels.DomainPublic},
		FrameworkGDPR:     {docmodels.DomainPublic},
		FrameworkSOX:      {docmodels.DomainFinance, docmodels.DomainPublic},
		FrameworkGeneral:  {docmodels.DomainPublic},
		Framework("ccpa"): {docmodels.DomainPublic},
	}
	for f, allowed := range cases {
		assert.ElementsMatch(t, allowed, f.AllowedDomains(), string(f))
		for _, d := range docmodels.AllDomains() {
			assert.Equal(t, contains(allowed, d), f.Permits(d), "%s/%s", f, d)
		}
	}
}

func contains(ds []docmodels.Domain, d docmodels.Domain) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

func TestValidateForFramework(t *testing.T) {
	ctx := context.Background()
	healthDoc := docmodels.Document{ID: "h-1", Domain: docmodels.DomainHealth, Content: "Patient SSN 123-45-6789"}

	t.Run("framework rejection precedes rbac", func(t *testing.T) {
		c, rec := newChecker(t)
		res, err := c.ValidateForFramework(ctx, FrameworkRequest{
			ValidateRequest: service.ValidateRequest{Document: healthDoc, Role: models.RoleAdmin, User: "root"},
			Framework:       FrameworkGDPR,
		})
		require.NoError(t, err)
		assert.Nil(t, res)
		require.Len(t, rec.events, 1)
		assert.Equal(t, "framework", rec.events[0].Reason)
		assert.Equal(t, "gdpr", rec.events[0].Framework)
		assert.False(t, rec.events[0].Granted)
	})

	t.Run("permitted domain still goes through rbac", func(t *testing.T) {
		c, rec := newChecker(t)
		res, err := c.ValidateForFramework(ctx, FrameworkRequest{
			ValidateRequest: service.ValidateRequest{Document: healthDoc, Role: models.RoleManager},
			Framework:       FrameworkHIPAA,
		})
		require.NoError(t, err)
		assert.Nil(t, res)
		require.Len(t, rec.events, 1)
		assert.Equal(t, "rbac", rec.events[0].Reason)
	})

	t.Run("admin under hipaa reads masked health document", func(t *testing.T) {
		c, _ := newChecker(t)
		res, err := c.ValidateForFramework(ctx, FrameworkRequest{
			ValidateRequest: service.ValidateRequest{Document: healthDoc, Role: models.RoleAdmin},
			Framework:       FrameworkHIPAA,
		})
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "Patient SSN [MASKED-SSN]", res.Document.Content)
	})

	t.Run("unknown framework behaves as general", func(t *testing.T) {
		c, _ := newChecker(t)
		res, err := c.ValidateForFramework(ctx, FrameworkRequest{
			ValidateRequest: service.ValidateRequest{Document: healthDoc, Role: models.RoleAdmin},
			Framework:       Framework("iso27001"),
		})
		require.NoError(t, err)
		assert.Nil(t, res)
	})
}

func TestFilterForFramework(t *testing.T) {
	c, _ := newChecker(t)
	docs := []docmodels.Document{
		{ID: "f", Domain: docmodels.DomainFinance, Content: "ledger"},
		{ID: "h", Domain: docmodels.DomainHR, Content: "handbook"},
		{ID: "p", Domain: docmodels.DomainPublic, Content: "faq"},
	}
	res, err := c.FilterForFramework(context.Background(), FilterRequest{
		BatchRequest: service.BatchRequest{Documents: docs, Role: models.RoleAnalyst},
		Framework:    FrameworkSOX,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Denied)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "f", res.Results[0].Document.ID)
	assert.Equal(t, "p", res.Results[1].Document.ID)
}

func TestFrameworkDomainOverrides(t *testing.T) {
	overrides, err := ParseFrameworkDomains(map[string][]string{"SOX": {"finance", "legal", "public"}})
	require.NoError(t, err)

	rec := &recordingAudit{}
	validator, err := service.New(rec)
	require.NoError(t, err)
	c, err := New(validator, rec, WithFrameworkDomains(overrides))
	require.NoError(t, err)

	assert.True(t, c.Permits(FrameworkSOX, docmodels.DomainLegal))
	assert.False(t, FrameworkSOX.Permits(docmodels.DomainLegal))
	assert.True(t, c.Permits(FrameworkHIPAA, docmodels.DomainHealth))

	res, err := c.ValidateForFramework(context.Background(), FrameworkRequest{
		ValidateRequest: service.ValidateRequest{
			Document: docmodels.Document{ID: "l", Domain: docmodels.DomainLegal, Content: "brief"},
			Role:     models.RoleAdmin,
		},
		Framework: FrameworkSOX,
	})
	require.NoError(t, err)
	assert.NotNil(t, res)

	_, err = ParseFrameworkDomains(map[string][]string{"pci": {"finance"}})
	assert.Error(t, err)
	_, err = ParseFrameworkDomains(map[string][]string{"sox": {"sales"}})
	assert.Error(t, err)
}
