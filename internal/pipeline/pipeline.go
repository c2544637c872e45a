// Package pipeline models the sales funnel a client moves through. Stages are
// a closed set; transitions are unrestricted, including out of won and lost.
package pipeline

import "fmt"

type Stage string

const (
	StageLead         Stage = "lead"
	StageQualified    Stage = "qualified"
	StageProposalSent Stage = "proposal_sent"
	StageNegotiation  Stage = "negotiation"
	StageWon          Stage = "won"
	StageLost         Stage = "lost"
)

// Stages lists every stage in board order.
func Stages() []Stage {
	return []Stage{StageLead, StageQualified, StageProposalSent, StageNegotiation, StageWon, StageLost}
}

// Normalize rejects anything outside the closed set instead of passing raw
// strings through to the database.
func Normalize(s string) (Stage, error) {
	switch Stage(s) {
	case StageLead, StageQualified, StageProposalSent, StageNegotiation, StageWon, StageLost:
		return Stage(s), nil
	default:
		return "", fmt.Errorf("unknown pipeline stage %q", s)
	}
}

// Label returns the board column heading for a stage.
func Label(s Stage) string {
	switch s {
	case StageLead:
		return "Lead"
	case StageQualified:
		return "Qualified"
	case StageProposalSent:
		return "Proposal Sent"
	case StageNegotiation:
		return "Negotiation"
	case StageWon:
		return "Won"
	case StageLost:
		return "Lost"
	}
	return string(s)
}

// Drop is the outcome of a drag gesture on the board.
type Drop struct {
	Stage Stage
	// Move is false when the gesture landed outside any droppable area; the
	// caller must not issue a store call in that case.
	Move bool
}

// ResolveDrop turns a drag target into the stage to persist. A column id wins
// over everything; a card target resolves to that card's current stage; no
// target at all is a no-op.
func ResolveDrop(columnID string, cardStage string, hasTarget bool) (Drop, error) {
	if !hasTarget {
		return Drop{}, nil
	}
	if columnID != "" {
		stage, err := Normalize(columnID)
		if err != nil {
			return Drop{}, err
		}
		return Drop{Stage: stage, Move: true}, nil
	}
	if cardStage != "" {
		stage, err := Normalize(cardStage)
		if err != nil {
			return Drop{}, err
		}
		return Drop{Stage: stage, Move: true}, nil
	}
	return Drop{}, nil
}
