package store

import "testing"

func TestWhereBuilderSkipsAllSentinel(t *testing.T) {
	wb := &whereBuilder{}
	wb.eq("market", "SG")
	wb.eq("status", FilterAll)
	wb.eq("plan_tier", "")
	wb.eq("pipeline_stage", "won")

	if got := wb.clause(); got != " WHERE market=$1 AND pipeline_stage=$2" {
		t.Fatalf("clause = %q", got)
	}
	if len(wb.args) != 2 || wb.args[0] != "SG" || wb.args[1] != "won" {
		t.Fatalf("args = %v", wb.args)
	}
}

func TestWhereBuilderNoConditions(t *testing.T) {
	wb := &whereBuilder{}
	wb.eq("status", "all")
	if got := wb.clause(); got != "" {
		t.Fatalf("clause = %q, want empty", got)
	}
}

func TestFilterKeyCanonical(t *testing.T) {
	a := ClientFilter{Market: "SG", Status: ""}.Key()
	b := ClientFilter{Market: "SG", Status: "all"}.Key()
	if a != b {
		t.Fatalf("unset and sentinel filters must share a key: %q vs %q", a, b)
	}
	if a != "market=SG|planTier=all|stage=all|status=all" {
		t.Fatalf("key = %q", a)
	}
}

func TestFilterKeyDistinguishesValues(t *testing.T) {
	a := TaskFilter{Status: "To Do"}.Key()
	b := TaskFilter{Status: "Done"}.Key()
	if a == b {
		t.Fatal("different filters must not collide")
	}
}
