package history

import (
	"iter"
	"slices"
)

// PlanProvider supplies the plans to migrate. Views in every plan are ordered by
// revision and anchors are already resolved to owner and revision pairs.
type PlanProvider interface {
	TrunkPlan() Plan
	BranchPlans() iter.Seq[Plan]
	TagPlans() iter.Seq[Plan]
	PlanCount() int
}

// StaticPlanProvider serves plans held in memory.
type StaticPlanProvider struct {
	Trunk    Plan
	Branches []Plan
	Tags     []Plan
}

// TrunkPlan returns the trunk plan.
func (provider StaticPlanProvider) TrunkPlan() Plan {
	return provider.Trunk
}

// BranchPlans yields the branch plans in declaration order.
func (provider StaticPlanProvider) BranchPlans() iter.Seq[Plan] {
	return slices.Values(provider.Branches)
}

// TagPlans yields the tag plans in declaration order.
func (provider StaticPlanProvider) TagPlans() iter.Seq[Plan] {
	return slices.Values(provider.Tags)
}

// PlanCount counts the trunk together with every branch and tag plan.
func (provider StaticPlanProvider) PlanCount() int {
	return 1 + len(provider.Branches) + len(provider.Tags)
}
