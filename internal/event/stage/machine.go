package stage

import (
	"context"

	"github.com/looplab/fsm"

	"fedevents/internal/event"
	dErrors "fedevents/pkg/domain-errors"
)

// Transition names accepted by the status machine.
const (
	TransitionOpenRegistration = "abrir_inscripcion"
	TransitionStartAudit       = "iniciar_auditoria"
	TransitionStartChamp       = "iniciar_campeonato"
	TransitionFinish           = "finalizar"
	TransitionArchive          = "archivar"
)

func newMachine(current event.Status) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{Name: TransitionOpenRegistration, Src: []string{string(event.StatusDraft)}, Dst: string(event.StatusRegistration)},
			{Name: TransitionStartAudit, Src: []string{string(event.StatusRegistration)}, Dst: string(event.StatusAudit)},
			{Name: TransitionStartChamp, Src: []string{string(event.StatusAudit)}, Dst: string(event.StatusChampionship)},
			{Name: TransitionFinish, Src: []string{string(event.StatusChampionship)}, Dst: string(event.StatusFinished)},
			{Name: TransitionArchive, Src: []string{
				string(event.StatusDraft),
				string(event.StatusRegistration),
				string(event.StatusAudit),
				string(event.StatusChampionship),
				string(event.StatusFinished),
			}, Dst: string(event.StatusArchived)},
		},
		fsm.Callbacks{},
	)
}

// Apply runs one named transition against the current status and returns the
// new status. Statuses only move forward; there is no reopen transition.
func Apply(ctx context.Context, current event.Status, transition string) (event.Status, error) {
	machine := newMachine(current)
	if err := machine.Event(ctx, transition); err != nil {
		return current, dErrors.Wrap(err, dErrors.CodeInvariantViolation,
			"status transition not allowed from "+string(current))
	}
	return event.ParseStatus(machine.Current()), nil
}

// AdvanceTo resolves the transition chain needed to move current to target
// and applies it, failing when target is behind current.
func AdvanceTo(ctx context.Context, current, target event.Status) (event.Status, error) {
	if current == target {
		return current, nil
	}
	order := []event.Status{
		event.StatusDraft,
		event.StatusRegistration,
		event.StatusAudit,
		event.StatusChampionship,
		event.StatusFinished,
	}
	if target == event.StatusArchived {
		return Apply(ctx, current, TransitionArchive)
	}
	transitions := map[event.Status]string{
		event.StatusRegistration: TransitionOpenRegistration,
		event.StatusAudit:        TransitionStartAudit,
		event.StatusChampionship: TransitionStartChamp,
		event.StatusFinished:     TransitionFinish,
	}
	status := current
	started := false
	for _, step := range order {
		if step == status {
			started = true
			continue
		}
		if !started {
			continue
		}
		next, err := Apply(ctx, status, transitions[step])
		if err != nil {
			return current, err
		}
		status = next
		if status == target {
			return status, nil
		}
	}
	return current, dErrors.New(dErrors.CodeInvariantViolation,
		"event status cannot move backwards")
}
