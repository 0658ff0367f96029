package middleware

import (
	"context"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_exchange/internal/domain/entity"
)

type UserSource interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// NotBlocked молча отбрасывает апдейты заблокированных пользователей.
// Незнакомые пользователи проходят дальше: их заводит /start.
func NotBlocked(users UserSource) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		var userID int64

		if update.Message != nil && update.Message.From != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		} else {
			return nil
		}

		user, err := users.GetByID(ctx, userID)
		if err == nil && user.IsBlocked {
			return nil
		}

		return ctx.Next(update)
	}
}
