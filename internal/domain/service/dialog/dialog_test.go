package dialog_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/domain/service/dialog"
)

type memStates struct {
	byUser map[int64]entity.PendingState
}

func newMemStates() *memStates {
	return &memStates{byUser: make(map[int64]entity.PendingState)}
}

func (m *memStates) Get(_ context.Context, userID int64) (*entity.PendingState, error) {
	if state, ok := m.byUser[userID]; ok {
		return &state, nil
	}
	return nil, nil //nolint:nilnil
}

func (m *memStates) Save(_ context.Context, state *entity.PendingState) error {
	m.byUser[state.UserID] = *state
	return nil
}

func (m *memStates) Clear(_ context.Context, userID int64) error {
	delete(m.byUser, userID)
	return nil
}

func newMachine(states dialog.StateRepository) *dialog.Machine {
	return dialog.NewMachine(states).WithRand(rand.New(rand.NewSource(7)))
}

func TestResetClearsAnyPendingMarker(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	states := newMemStates()
	machine := newMachine(states)

	rq.NoError(machine.Set(ctx, &entity.PendingState{
		UserID:    42,
		Kind:      entity.PendingAmount,
		Currency:  entity.CurrencyBTC,
		DealType:  entity.DealTypeBuy,
		RubAmount: 5000,
	}))

	rq.NoError(machine.Reset(ctx, 42))

	state, err := machine.Pending(ctx, 42)
	rq.NoError(err)
	rq.Nil(state)
	rq.NotContains(states.byUser, int64(42))
}

func TestBeginCaptchaStoresAnswer(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	states := newMemStates()
	machine := newMachine(states)

	challenge, err := machine.BeginCaptcha(ctx, 42, "alice", "ref-1")
	rq.NoError(err)
	rq.Len(challenge.Options, 6)
	rq.Contains(challenge.Options, challenge.Answer)

	state, err := machine.Pending(ctx, 42)
	rq.NoError(err)
	rq.True(state.Active())
	rq.Equal(entity.PendingCaptcha, state.Kind)
	rq.Equal(challenge.Answer, state.CaptchaAnswer)
	rq.Equal("alice", state.Username)
	rq.Equal("ref-1", state.ReferralPayload)
}

func TestVerifyCaptchaCorrectAnswerClearsState(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	machine := newMachine(newMemStates())

	challenge, err := machine.BeginCaptcha(ctx, 42, "alice", "")
	rq.NoError(err)

	ok, _, err := machine.VerifyCaptcha(ctx, 42, challenge.Answer)
	rq.NoError(err)
	rq.True(ok)

	state, err := machine.Pending(ctx, 42)
	rq.NoError(err)
	rq.Nil(state)
}

func TestVerifyCaptchaWrongAnswerRegenerates(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	machine := newMachine(newMemStates())

	_, err := machine.BeginCaptcha(ctx, 42, "alice", "ref-1")
	rq.NoError(err)

	// Заведомо неверный ответ: не из вариантов.
	ok, next, err := machine.VerifyCaptcha(ctx, 42, "❌")
	rq.NoError(err)
	rq.False(ok)
	rq.Len(next.Options, 6)

	state, err := machine.Pending(ctx, 42)
	rq.NoError(err)
	rq.Equal(entity.PendingCaptcha, state.Kind)
	rq.Equal(next.Answer, state.CaptchaAnswer)
	// Перевыпуск челленджа не теряет данные онбординга.
	rq.Equal("alice", state.Username)
	rq.Equal("ref-1", state.ReferralPayload)

	// Попытки не ограничены: новый челлендж тоже можно решить.
	ok, _, err = machine.VerifyCaptcha(ctx, 42, next.Answer)
	rq.NoError(err)
	rq.True(ok)
}

func TestVerifyCaptchaWithoutMarkerIsNoop(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	machine := newMachine(newMemStates())

	ok, next, err := machine.VerifyCaptcha(ctx, 42, "🍎")
	rq.NoError(err)
	rq.False(ok)
	rq.Empty(next.Options)
}
