package e2e

import (
	"github.com/cucumber/godog"

	"trustrag/e2e/steps/common"
	"trustrag/e2e/steps/guardrails"
	"trustrag/e2e/steps/query"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	query.RegisterSteps(ctx, tc)
	guardrails.RegisterSteps(ctx, tc)
}
