// Package plans loads migration plans from a YAML or JSON manifest and exposes them
// through history.StaticPlanProvider.
package plans
