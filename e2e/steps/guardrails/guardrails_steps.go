package guardrails

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"trustrag/internal/platform/config"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	Configure(fn func(*config.Config)) error
}

// RegisterSteps registers guardrail, violation and alert steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &guardrailSteps{tc: tc}

	ctx.Step(`^users may ask at most (\d+) questions? per hour$`, steps.userHourlyLimit)
	ctx.Step(`^I check the answer "([^"]*)"$`, steps.checkOutput)
	ctx.Step(`^I check the question "([^"]*)"$`, steps.checkInput)
	ctx.Step(`^the text should be rejected as "([^"]*)"$`, steps.rejectedAs)
	ctx.Step(`^the text should be accepted$`, steps.accepted)
	ctx.Step(`^a "([^"]*)" alert should have been raised$`, steps.alertRaised)
	ctx.Step(`^a "([^"]*)" violation should have been recorded$`, steps.violationRecorded)
}

type guardrailSteps struct {
	tc TestContext
}

func (s *guardrailSteps) userHourlyLimit(ctx context.Context, n int) error {
	return s.tc.Configure(func(c *config.Config) { c.Guardrails.RateLimitPerUserPerHour = n })
}

func (s *guardrailSteps) checkOutput(ctx context.Context, text string) error {
	return s.tc.POST("/v1/guardrails/output", map[string]interface{}{"text": text})
}

func (s *guardrailSteps) checkInput(ctx context.Context, text string) error {
	return s.tc.POST("/v1/guardrails/input", map[string]interface{}{"query": text})
}

func (s *guardrailSteps) rejectedAs(ctx context.Context, violation string) error {
	safe, err := s.tc.GetResponseField("safe")
	if err != nil {
		return err
	}
	if safe != false {
		return fmt.Errorf("expected the text to be rejected")
	}
	got, err := s.tc.GetResponseField("violation.violation_type")
	if err != nil {
		return err
	}
	if got != violation {
		return fmt.Errorf("expected violation %q, got %v", violation, got)
	}
	return nil
}

func (s *guardrailSteps) accepted(ctx context.Context) error {
	safe, err := s.tc.GetResponseField("safe")
	if err != nil {
		return err
	}
	if safe != true {
		return fmt.Errorf("expected the text to be accepted")
	}
	return nil
}

func (s *guardrailSteps) listContains(path, field, want string) error {
	if err := s.tc.GET(path); err != nil {
		return err
	}
	raw, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	list, _ := raw.([]interface{})
	var seen []interface{}
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			for _, key := range []string{"type", "violation_type"} {
				if v, ok := m[key]; ok {
					if v == want {
						return nil
					}
					seen = append(seen, v)
				}
			}
		}
	}
	return fmt.Errorf("expected %s to contain %q, saw %v", path, want, seen)
}

func (s *guardrailSteps) alertRaised(ctx context.Context, alertType string) error {
	return s.listContains("/v1/alerts", "alerts", alertType)
}

func (s *guardrailSteps) violationRecorded(ctx context.Context, violationType string) error {
	return s.listContains("/v1/violations", "violations", violationType)
}
