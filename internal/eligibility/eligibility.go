// Package eligibility decides how a service visit is billed for a given
// customer location, following the transport clauses of the warranty policy.
package eligibility

import (
	"context"
	"fmt"

	"warrantyai/internal/model"
)

const (
	beyondLimitNotes = "According to your warranty terms: " +
		"1. Since you are outside municipal limits, you must bring the unit to the center at your own cost/risk. " +
		"2. Travel expenses for technicians will be charged to you."
	withinLimitNotes = "You are within municipal limits. Standard visiting charges still apply per policy."

	policyReference = "LG Warranty Page 1 & 4"
)

// Evaluate applies the transport-cost policy for a ZIP code. The decision is
// deterministic: the same inputs always yield the same status and notes.
func Evaluate(zip string, beyondServiceLimit bool) model.EligibilityDecision {
	if beyondServiceLimit {
		return model.EligibilityDecision{
			Status:      model.EligibilityActionRequired,
			PolicyNotes: beyondLimitNotes,
			Reference:   policyReference,
		}
	}
	return model.EligibilityDecision{
		Status:      model.EligibilityStandard,
		PolicyNotes: withinLimitNotes,
		Reference:   policyReference,
	}
}

// ServiceAreaRegistry answers whether a ZIP code lies beyond the service
// center's travel limit.
type ServiceAreaRegistry interface {
	BeyondServiceLimit(ctx context.Context, zip string) (bool, error)
}

// StaticRegistry is a fixed in-area ZIP list. Any ZIP not listed counts as
// beyond the service limit.
type StaticRegistry struct {
	withinArea map[string]struct{}
}

// NewStaticRegistry builds a registry from the ZIP codes inside the service
// area. With no arguments every location is beyond the limit.
func NewStaticRegistry(withinArea ...string) *StaticRegistry {
	within := make(map[string]struct{}, len(withinArea))
	for _, zip := range withinArea {
		within[zip] = struct{}{}
	}
	return &StaticRegistry{withinArea: within}
}

func (r *StaticRegistry) BeyondServiceLimit(_ context.Context, zip string) (bool, error) {
	_, ok := r.withinArea[zip]
	return !ok, nil
}

// Service resolves a ZIP against the registry and evaluates the policy.
type Service struct {
	registry ServiceAreaRegistry
}

func NewService(registry ServiceAreaRegistry) *Service {
	return &Service{registry: registry}
}

// VerifyServiceArea returns the billing decision for one ZIP code.
func (s *Service) VerifyServiceArea(ctx context.Context, zip string) (model.EligibilityDecision, error) {
	beyond, err := s.registry.BeyondServiceLimit(ctx, zip)
	if err != nil {
		return model.EligibilityDecision{}, fmt.Errorf("resolve service area for %q: %w", zip, err)
	}
	return Evaluate(zip, beyond), nil
}
