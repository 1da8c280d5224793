// Package migrate runs a planned history migration into a git repository: it loads
// the plan manifest, opens the target adapter, maps source usernames to git
// identities, drives history.Scheduler and writes the revision map report.
package migrate
