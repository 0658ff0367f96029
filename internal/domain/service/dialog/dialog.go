package dialog

import (
	"context"
	"math/rand"
	"time"

	"tg_exchange/internal/domain/entity"
)

// StateRepository — хранилище эфемерных состояний диалога.
type StateRepository interface {
	Get(ctx context.Context, userID int64) (*entity.PendingState, error)
	Save(ctx context.Context, state *entity.PendingState) error
	Clear(ctx context.Context, userID int64) error
}

// Machine управляет pending-маркерами диалога. У пользователя в любой
// момент активен максимум один маркер; любая верхнеуровневая команда
// начинается со сброса.
type Machine struct {
	states StateRepository
	rnd    *rand.Rand
}

func NewMachine(states StateRepository) *Machine {
	return &Machine{
		states: states,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // не криптография
	}
}

func (m *Machine) WithRand(rnd *rand.Rand) *Machine {
	m.rnd = rnd
	return m
}

// Pending возвращает активное состояние пользователя или nil.
func (m *Machine) Pending(ctx context.Context, userID int64) (*entity.PendingState, error) {
	return m.states.Get(ctx, userID)
}

// Set перезаписывает состояние целиком.
func (m *Machine) Set(ctx context.Context, state *entity.PendingState) error {
	return m.states.Save(ctx, state)
}

// Reset стирает запись состояния. Вызывается первой из каждой
// верхнеуровневой команды.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	return m.states.Clear(ctx, userID)
}

// BeginCaptcha сбрасывает прежнее состояние и выдаёт новый челлендж.
// Username и payload хранятся в состоянии до успешного ответа.
func (m *Machine) BeginCaptcha(ctx context.Context, userID int64, username, referralPayload string) (Challenge, error) {
	challenge := newChallenge(m.rnd)

	state := &entity.PendingState{
		UserID:          userID,
		Kind:            entity.PendingCaptcha,
		CaptchaAnswer:   challenge.Answer,
		Username:        username,
		ReferralPayload: referralPayload,
	}
	if err := m.states.Save(ctx, state); err != nil {
		return Challenge{}, err
	}

	return challenge, nil
}

// VerifyCaptcha проверяет ответ. Правильный ответ снимает маркер;
// неправильный генерирует новый челлендж (число попыток не ограничено).
func (m *Machine) VerifyCaptcha(ctx context.Context, userID int64, answer string) (bool, Challenge, error) {
	state, err := m.states.Get(ctx, userID)
	if err != nil {
		return false, Challenge{}, err
	}

	if !state.Active() || state.Kind != entity.PendingCaptcha {
		return false, Challenge{}, nil
	}

	if answer == state.CaptchaAnswer {
		if err = m.states.Clear(ctx, userID); err != nil {
			return false, Challenge{}, err
		}
		return true, Challenge{}, nil
	}

	next, err := m.BeginCaptcha(ctx, userID, state.Username, state.ReferralPayload)
	if err != nil {
		return false, Challenge{}, err
	}

	return false, next, nil
}
