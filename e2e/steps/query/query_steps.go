package query

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers question answering and retrieval steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &querySteps{tc: tc}

	ctx.Step(`^I ask "([^"]*)"$`, steps.ask)
	ctx.Step(`^I ask "([^"]*)" about the "([^"]*)" domain$`, steps.askInDomain)
	ctx.Step(`^I ask "([^"]*)" under the "([^"]*)" framework$`, steps.askUnderFramework)
	ctx.Step(`^I retrieve (\d+) documents? for "([^"]*)"$`, steps.retrieve)
	ctx.Step(`^the answer should cite "([^"]*)"$`, steps.answerShouldCite)
	ctx.Step(`^the answer should not cite "([^"]*)"$`, steps.answerShouldNotCite)
	ctx.Step(`^the query should be blocked by "([^"]*)"$`, steps.blockedBy)
}

type querySteps struct {
	tc TestContext
}

func (s *querySteps) ask(ctx context.Context, q string) error {
	return s.tc.POST("/v1/query", map[string]interface{}{"query": q})
}

func (s *querySteps) askInDomain(ctx context.Context, q, domain string) error {
	return s.tc.POST("/v1/query", map[string]interface{}{"query": q, "domain": domain})
}

func (s *querySteps) askUnderFramework(ctx context.Context, q, framework string) error {
	return s.tc.POST("/v1/query", map[string]interface{}{"query": q, "framework": framework})
}

func (s *querySteps) retrieve(ctx context.Context, k int, q string) error {
	return s.tc.POST("/v1/retrieve", map[string]interface{}{"query": q, "k": k})
}

func (s *querySteps) sourceIDs() ([]string, error) {
	raw, err := s.tc.GetResponseField("sources")
	if err != nil {
		return nil, err
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources is not a list")
	}
	ids := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			ids = append(ids, fmt.Sprint(m["id"]))
		}
	}
	return ids, nil
}

func (s *querySteps) answerShouldCite(ctx context.Context, id string) error {
	ids, err := s.sourceIDs()
	if err != nil {
		return err
	}
	for _, got := range ids {
		if got == id {
			return nil
		}
	}
	return fmt.Errorf("expected sources to include %q, got %v", id, ids)
}

func (s *querySteps) answerShouldNotCite(ctx context.Context, id string) error {
	ids, err := s.sourceIDs()
	if err != nil {
		return err
	}
	for _, got := range ids {
		if got == id {
			return fmt.Errorf("expected sources to exclude %q, got %v", id, ids)
		}
	}
	return nil
}

func (s *querySteps) blockedBy(ctx context.Context, stage string) error {
	blocked, err := s.tc.GetResponseField("blocked")
	if err != nil {
		return err
	}
	if blocked != true {
		return fmt.Errorf("expected the query to be blocked")
	}
	got, err := s.tc.GetResponseField("blocked_by")
	if err != nil {
		return err
	}
	if got != stage {
		return fmt.Errorf("expected blocked_by %q, got %v", stage, got)
	}
	return nil
}
