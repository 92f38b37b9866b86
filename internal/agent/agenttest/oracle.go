// Package agenttest provides a scripted decision oracle for tests.
package agenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/claimflow/internal/llm"
)

// Oracle replies with canned text per caller tag and decodes it like the real oracle
type Oracle struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	calls   []string
	prompts map[string]string
}

// NewOracle creates an oracle with no scripted replies
func NewOracle() *Oracle {
	return &Oracle{
		replies: make(map[string][]string),
		errs:    make(map[string]error),
		prompts: make(map[string]string),
	}
}

// Reply scripts the replies for caller, replacing earlier ones.
// The last reply repeats once the others are used up.
func (o *Oracle) Reply(caller string, replies ...string) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replies[caller] = append([]string(nil), replies...)
	return o
}

// Fail makes every consultation by caller return err
func (o *Oracle) Fail(caller string, err error) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[caller] = err
	return o
}

// Consult implements agent.Oracle
func (o *Oracle) Consult(_ context.Context, caller, prompt string, out llm.Decision) error {
	o.mu.Lock()
	o.calls = append(o.calls, caller)
	o.prompts[caller] = prompt
	err := o.errs[caller]
	queue := o.replies[caller]
	var reply string
	if len(queue) > 0 {
		reply = queue[0]
		if len(queue) > 1 {
			o.replies[caller] = queue[1:]
		}
	}
	o.mu.Unlock()

	if err != nil {
		return fmt.Errorf("consult %s: %w", caller, err)
	}
	if len(queue) == 0 {
		return fmt.Errorf("consult %s: no scripted reply", caller)
	}
	if err := llm.Decode(reply, out); err != nil {
		return fmt.Errorf("consult %s: %w", caller, err)
	}
	return nil
}

// Calls returns the caller tags consulted so far, in order
func (o *Oracle) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

// Prompt returns the last prompt sent by caller
func (o *Oracle) Prompt(caller string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prompts[caller]
}

// Happy scripts a full successful run of the five stage agents
func Happy() *Oracle {
	return NewOracle().
		Reply("ExtractionAgent-Strategy", `{"strategy":"parse the form","toolsToUse":["documentParser","dataConverter"],"reasoning":"structured form"}`).
		Reply("ExtractionAgent-Quality", `{"extractionQuality":"good","completenessScore":90,"missingCriticalFields":[],"confidenceLevel":0.9,"summary":"complete"}`).
		Reply("ValidationAgent-Decision", `{"isValid":true,"validationScore":92,"validationErrors":[],"validationWarnings":[],"requiresManualReview":false,"reasoning":"all fields present","recommendedAction":"PASS_VALIDATION"}`).
		Reply("EnrichmentAgent-Identify", `{"missingFields":[],"suspiciousData":[],"ragQueries":["auto collision coverage"],"enrichmentStrategy":"confirm coverage"}`).
		Reply("EnrichmentAgent-Synthesis", `{"enrichedData":{"incidentLocation":"Main Street"},"newlyAddedFields":{"incidentLocation":"from narrative"},"correctedFields":{},"dataQualityImprovement":"5%","confidence":0.8,"additionalNotesForReview":""}`).
		Reply("FraudScreeningAgent-Analysis", `{"fraudRiskLevel":"LOW","fraudIndicators":[],"overallFraudProbability":0.1,"suspiciousPatterns":[],"recommendedAction":"APPROVE","reasoning":"consistent claim","needsInvestigation":false,"investigationPriority":"low"}`).
		Reply("RoutingAgent-Decision", `{"routingDecision":"APPROVE","assignedQueue":"standard_processing","processingPriority":"standard","requiresAdditionalInfo":false,"additionalInfoNeeded":[],"shouldBeFlagged":false,"flagReason":"","estimatedProcessingTime":"3 days","summary":"Approved for standard processing","reasoning":"low risk"}`)
}
