package app

import "testing"

// mutatedEntities is every entity name the service passes to invalidate.
// Adding a mutation with a new entity name means adding a row to
// invalidationGroups; this test is the reminder.
var mutatedEntities = []string{
	"clients",
	"deliverables",
	"invoices",
	"tasks",
	"content",
	"proposals",
	"retainers",
	"sla",
	"team",
	"settings",
	"portal",
	"notifications",
}

func TestInvalidationGroupsCoverEveryMutatedEntity(t *testing.T) {
	for _, entity := range mutatedEntities {
		groups, ok := invalidationGroups[entity]
		if !ok {
			t.Errorf("no invalidation groups for %q", entity)
			continue
		}
		found := false
		for _, g := range groups {
			if g == entity {
				found = true
			}
		}
		if !found {
			t.Errorf("entity %q does not invalidate its own group", entity)
		}
	}
}

func TestHealthInputsInvalidateClientReads(t *testing.T) {
	// Health scores are derived from deliverables, invoices, and tasks, and
	// served under client reads; mutating any of them must flush clients.
	for _, entity := range []string{"deliverables", "invoices", "tasks"} {
		if !groupsContain(invalidationGroups[entity], "clients") {
			t.Errorf("%q does not invalidate clients", entity)
		}
	}
}

func TestDerivedReadsInvalidatedByTheirInputs(t *testing.T) {
	for _, entity := range []string{"clients", "deliverables", "invoices", "tasks", "content", "proposals"} {
		if !groupsContain(invalidationGroups[entity], "dashboard") {
			t.Errorf("%q does not invalidate dashboard", entity)
		}
	}
	// SLA definitions change content deadlines on read.
	if !groupsContain(invalidationGroups["sla"], "content") {
		t.Error("sla does not invalidate content")
	}
}

func groupsContain(groups []string, want string) bool {
	for _, g := range groups {
		if g == want {
			return true
		}
	}
	return false
}
