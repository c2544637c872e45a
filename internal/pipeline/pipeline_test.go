package pipeline

import "testing"

func TestNormalizeAcceptsEveryStage(t *testing.T) {
	for _, s := range Stages() {
		got, err := Normalize(string(s))
		if err != nil {
			t.Fatalf("Normalize(%q): %v", s, err)
		}
		if got != s {
			t.Fatalf("Normalize(%q) = %q", s, got)
		}
	}
}

func TestNormalizeRejectsUnknown(t *testing.T) {
	for _, bad := range []string{"", "Lead", "closed", "won "} {
		if _, err := Normalize(bad); err == nil {
			t.Errorf("Normalize(%q) accepted", bad)
		}
	}
}

func TestResolveDrop(t *testing.T) {
	cases := []struct {
		name      string
		columnID  string
		cardStage string
		hasTarget bool
		want      Drop
		wantErr   bool
	}{
		{name: "column wins", columnID: "negotiation", cardStage: "lead", hasTarget: true, want: Drop{Stage: StageNegotiation, Move: true}},
		{name: "card fallback", cardStage: "proposal_sent", hasTarget: true, want: Drop{Stage: StageProposalSent, Move: true}},
		{name: "no droppable target", columnID: "won", cardStage: "lead", hasTarget: false, want: Drop{}},
		{name: "target with nothing resolvable", hasTarget: true, want: Drop{}},
		{name: "bad column", columnID: "closed", hasTarget: true, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDrop(tc.columnID, tc.cardStage, tc.hasTarget)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

// Terminal stages are not sticky: a won client can drop back into the funnel.
func TestResolveDropOutOfWon(t *testing.T) {
	got, err := ResolveDrop("qualified", "won", true)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Move || got.Stage != StageQualified {
		t.Fatalf("got %+v", got)
	}
}
