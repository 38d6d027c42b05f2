// Package match holds the championship schedule and the result recorder:
// who may enter a result, how a result propagates through the bracket and
// the one-time news publication derived from it.
package match

import (
	"time"
)

// Phase places a match inside the bracket.
type Phase string

const (
	PhaseGroup      Phase = "group"
	PhaseQuarter    Phase = "quarterfinal"
	PhaseSemifinal  Phase = "semifinal"
	PhaseFinal      Phase = "final"
	PhaseThirdPlace Phase = "third_place"
)

// Status is the match lifecycle. finalizado and completado are terminal.
type Status string

const (
	StatusScheduled Status = "programado"
	StatusFinished  Status = "finalizado"
	StatusCompleted Status = "completado"
)

// IsTerminal reports whether the result can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCompleted
}

// SlotRole names which side of a source match feeds a slot.
type SlotRole string

const (
	RoleWinner SlotRole = "ganador"
	RoleLoser  SlotRole = "perdedor"
)

// TeamSlot is one side of a match: either a concrete team or a placeholder
// waiting for an earlier match to resolve.
type TeamSlot struct {
	TeamID        *int64
	InstitutionID int64
	Name          string

	// Placeholder source: the slot fills with the winner or loser of
	// SourceMatchID once that match records a result.
	SourceMatchID *int64
	SourceRole    SlotRole
}

// Resolved reports whether a concrete team occupies the slot.
func (s TeamSlot) Resolved() bool { return s.TeamID != nil }

// Result is the recorded outcome. Nil scores mean no result yet; a nil
// winner with equal scores is a draw.
type Result struct {
	LocalScore    *int
	VisitorScore  *int
	WinnerTeamID  *int64
	Criterion     string
	NewsPublished bool
}

// HasScores reports whether both scores were recorded.
func (r Result) HasScores() bool { return r.LocalScore != nil && r.VisitorScore != nil }

// Match is one fixture of an event's championship.
type Match struct {
	ID          int64
	EventID     int64
	Phase       Phase
	Local       TeamSlot
	Visitor     TeamSlot
	ScenarioID  *int64
	ScheduledAt *time.Time
	Status      Status
	Result      Result
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Involves reports whether one of the match's resolved teams belongs to the
// institution.
func (m *Match) Involves(institutionID int64) bool {
	return (m.Local.Resolved() && m.Local.InstitutionID == institutionID) ||
		(m.Visitor.Resolved() && m.Visitor.InstitutionID == institutionID)
}

// SlotOf returns the slot holding the team, or nil.
func (m *Match) SlotOf(teamID int64) *TeamSlot {
	if m.Local.TeamID != nil && *m.Local.TeamID == teamID {
		return &m.Local
	}
	if m.Visitor.TeamID != nil && *m.Visitor.TeamID == teamID {
		return &m.Visitor
	}
	return nil
}

// Outcome is a team's per-match result label.
type Outcome string

const (
	OutcomeWon     Outcome = "ganado"
	OutcomeLost    Outcome = "perdido"
	OutcomeDraw    Outcome = "empate"
	OutcomePending Outcome = "pendiente"
)

// OutcomeFor labels the match from one team's point of view: ganado for the
// recorded winner, perdido when another team won, empate when both scores
// are present and equal with no winner, pendiente otherwise.
func (m *Match) OutcomeFor(teamID int64) Outcome {
	r := m.Result
	if r.WinnerTeamID != nil {
		if *r.WinnerTeamID == teamID {
			return OutcomeWon
		}
		return OutcomeLost
	}
	if r.HasScores() && *r.LocalScore == *r.VisitorScore {
		return OutcomeDraw
	}
	return OutcomePending
}

// loserOf returns the resolved slot that did not win, or nil for a draw or
// an unresolved match.
func (m *Match) loserOf(winnerTeamID int64) *TeamSlot {
	if m.Local.Resolved() && *m.Local.TeamID != winnerTeamID {
		return &m.Local
	}
	if m.Visitor.Resolved() && *m.Visitor.TeamID != winnerTeamID {
		return &m.Visitor
	}
	return nil
}
