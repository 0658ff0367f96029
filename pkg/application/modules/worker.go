package modules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Runner — фоновая задача с жизненным циклом до отмены контекста
// (свипер сделок, обновление курса, планировщик рассылок).
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Worker модуль, ответственный за запуск и остановку фоновых задач.
type Worker struct{}

func (Worker) Run(ctx context.Context, g *errgroup.Group, runners ...Runner) {
	for _, r := range runners {
		g.Go(func() error {
			logger(ctx).Info("worker started", "name", r.Name())

			if err := r.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("%s: %w", r.Name(), err)
			}

			logger(ctx).Info("worker stopped", "name", r.Name())

			return nil
		})
	}
}
