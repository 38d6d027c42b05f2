package match

import "sort"

// StandingsRow is one team's line in the series table.
type StandingsRow struct {
	TeamID       int64
	Name         string
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

// Diff is the goal difference of the row.
func (r StandingsRow) Diff() int { return r.GoalsFor - r.GoalsAgainst }

// Standings builds the points table from recorded results: 3 for a win,
// 1 for a draw. Matches without a result or an unresolved side are skipped.
// Ordering: points, then goal difference, then goals scored, then name.
func Standings(matches []*Match) []StandingsRow {
	rows := make(map[int64]*StandingsRow)
	row := func(slot TeamSlot) *StandingsRow {
		r, ok := rows[*slot.TeamID]
		if !ok {
			r = &StandingsRow{TeamID: *slot.TeamID, Name: slot.Name}
			rows[*slot.TeamID] = r
		}
		return r
	}

	for _, m := range matches {
		if !m.Status.IsTerminal() || !m.Result.HasScores() {
			continue
		}
		if !m.Local.Resolved() || !m.Visitor.Resolved() {
			continue
		}
		local, visitor := row(m.Local), row(m.Visitor)
		lScore, vScore := *m.Result.LocalScore, *m.Result.VisitorScore

		local.Played++
		visitor.Played++
		local.GoalsFor += lScore
		local.GoalsAgainst += vScore
		visitor.GoalsFor += vScore
		visitor.GoalsAgainst += lScore

		switch m.OutcomeFor(*m.Local.TeamID) {
		case OutcomeWon:
			local.Won++
			local.Points += 3
			visitor.Lost++
		case OutcomeLost:
			visitor.Won++
			visitor.Points += 3
			local.Lost++
		case OutcomeDraw:
			local.Drawn++
			visitor.Drawn++
			local.Points++
			visitor.Points++
		}
	}

	out := make([]StandingsRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Diff() != out[j].Diff() {
			return out[i].Diff() > out[j].Diff()
		}
		if out[i].GoalsFor != out[j].GoalsFor {
			return out[i].GoalsFor > out[j].GoalsFor
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// roundOrder is the bracket progression. The third-place match rides with
// the final round rather than forming its own.
var roundOrder = []Phase{PhaseGroup, PhaseQuarter, PhaseSemifinal, PhaseFinal}

// PhaseSequence returns the rounds a playoff of the given size plays.
func PhaseSequence(teamCount int) []Phase {
	switch {
	case teamCount <= 2:
		return []Phase{PhaseFinal}
	case teamCount <= 4:
		return []Phase{PhaseSemifinal, PhaseFinal}
	case teamCount <= 8:
		return []Phase{PhaseQuarter, PhaseSemifinal, PhaseFinal}
	default:
		return roundOrder
	}
}

// Meta summarizes bracket progress for the schedule view.
type Meta struct {
	HasResults      bool
	CompletedPhases []Phase
	NextPhase       *Phase
}

// ScheduleMeta reports which rounds are fully played and which comes next.
// A round is complete when every one of its matches has a recorded result;
// the final round also requires the third-place match when one exists.
func ScheduleMeta(matches []*Match) Meta {
	byRound := make(map[Phase][]*Match)
	for _, m := range matches {
		round := m.Phase
		if round == PhaseThirdPlace {
			round = PhaseFinal
		}
		byRound[round] = append(byRound[round], m)
	}

	meta := Meta{}
	for _, m := range matches {
		if m.Status.IsTerminal() && m.Result.HasScores() {
			meta.HasResults = true
			break
		}
	}

	for _, round := range roundOrder {
		ms, present := byRound[round]
		if !present {
			continue
		}
		complete := true
		for _, m := range ms {
			if !m.Status.IsTerminal() || !m.Result.HasScores() {
				complete = false
				break
			}
		}
		if complete {
			meta.CompletedPhases = append(meta.CompletedPhases, round)
			continue
		}
		if meta.NextPhase == nil {
			next := round
			meta.NextPhase = &next
		}
	}
	return meta
}
