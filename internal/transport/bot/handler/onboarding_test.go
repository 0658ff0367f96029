package handler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/domain/service/dialog"
	"tg_exchange/pkg/errcodes"
)

type memUsers struct {
	byID map[int64]entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]entity.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if user, ok := m.byID[id]; ok {
		return &user, nil
	}
	return nil, domain.NewError(errcodes.UserNotFound, "пользователь не найден")
}

func (m *memUsers) GetByReferralID(_ context.Context, referralID string) (*entity.User, error) {
	for _, user := range m.byID {
		if user.ReferralID == referralID {
			return &user, nil
		}
	}
	return nil, domain.NewError(errcodes.UserNotFound, "пользователь не найден")
}

func (m *memUsers) Save(_ context.Context, user *entity.User) error {
	m.byID[user.ID] = *user
	return nil
}

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

func newOnboardingHandler(users *memUsers, machine *dialog.Machine) *Handler {
	return New(users, nil, nil, nil, nil, nil, machine, "test_bot", 0)
}

// Запись пользователя появляется только после правильного ответа на капчу:
// ни выдача челленджа, ни неверный ответ пользователя не создают.
func TestUserCreatedOnlyAfterCaptchaSolved(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newMemUsers()
	machine := dialog.NewMachine(newMemStates()).WithRand(rand.New(rand.NewSource(7)))
	h := newOnboardingHandler(users, machine)

	_, err := machine.BeginCaptcha(ctx, 42, "alice", "")
	rq.NoError(err)

	_, err = users.GetByID(ctx, 42)
	rq.True(domain.IsCode(err, errcodes.UserNotFound))

	ok, next, err := machine.VerifyCaptcha(ctx, 42, "❌")
	rq.NoError(err)
	rq.False(ok)

	_, err = users.GetByID(ctx, 42)
	rq.True(domain.IsCode(err, errcodes.UserNotFound))

	pending, err := machine.Pending(ctx, 42)
	rq.NoError(err)

	ok, _, err = machine.VerifyCaptcha(ctx, 42, next.Answer)
	rq.NoError(err)
	rq.True(ok)
	rq.NoError(h.registerUser(ctx, 42, pending))

	user, err := users.GetByID(ctx, 42)
	rq.NoError(err)
	rq.Equal("alice", user.Username)
	rq.NotEmpty(user.ReferralID)
	rq.False(user.RegistrationDate.IsZero())
}

// Реферальный payload из /start доезжает до создания записи.
func TestRegisterUserAttachesReferral(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newMemUsers()
	rq.NoError(users.Save(ctx, &entity.User{ID: 1, ReferralID: "ref-1"}))

	machine := dialog.NewMachine(newMemStates()).WithRand(rand.New(rand.NewSource(7)))
	h := newOnboardingHandler(users, machine)

	rq.NoError(h.registerUser(ctx, 42, &entity.PendingState{
		UserID:          42,
		Username:        "bob",
		ReferralPayload: "ref-1",
	}))

	referrer, err := users.GetByID(ctx, 1)
	rq.NoError(err)
	rq.True(referrer.HasReferral(42))
}

// Повторная регистрация знакомого пользователя ничего не перетирает.
func TestRegisterUserKeepsExistingRecord(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newMemUsers()
	rq.NoError(users.Save(ctx, &entity.User{ID: 42, Username: "alice", ReferralID: "keep"}))

	machine := dialog.NewMachine(newMemStates()).WithRand(rand.New(rand.NewSource(7)))
	h := newOnboardingHandler(users, machine)

	rq.NoError(h.registerUser(ctx, 42, &entity.PendingState{UserID: 42, Username: "other"}))

	user, err := users.GetByID(ctx, 42)
	rq.NoError(err)
	rq.Equal("alice", user.Username)
	rq.Equal("keep", user.ReferralID)
}
