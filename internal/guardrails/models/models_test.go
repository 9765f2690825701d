package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Zero(t, Severity("SEVERE").Rank())

	assert.True(t, SeverityCritical.Alertable())
	assert.True(t, SeverityHigh.Alertable())
	assert.False(t, SeverityMedium.Alertable())
	assert.False(t, SeverityLow.Alertable())
}

func TestParse(t *testing.T) {
	sev, err := ParseSeverity(" high ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)

	vt, err := ParseViolationType("PII_DETECTED")
	require.NoError(t, err)
	assert.Equal(t, ViolationPII, vt)

	_, err = ParseViolationType("spam")
	assert.Error(t, err)
}

func TestViolationFilterMatches(t *testing.T) {
	v := Violation{Type: ViolationToxic, Severity: SeverityHigh}

	assert.True(t, ViolationFilter{}.Matches(v))
	assert.True(t, ViolationFilter{Severity: SeverityHigh}.Matches(v))
	assert.False(t, ViolationFilter{Severity: SeverityCritical}.Matches(v))
	assert.True(t, ViolationFilter{Type: ViolationToxic, Severity: SeverityHigh}.Matches(v))
	assert.False(t, ViolationFilter{Type: ViolationPII}.Matches(v))
}

func TestBlockCopiesViolation(t *testing.T) {
	v := Violation{ID: "a"}
	d := Block(v)
	v.ID = "b"
	require.NotNil(t, d.Violation)
	assert.False(t, d.Safe)
	assert.Equal(t, "a", d.Violation.ID)
	assert.True(t, Allow().Safe)
}
