package connectors

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"
)

// Files — коннектор к каталогу с JSON-коллекциями хранилища.
// Лениво создаёт каталог и отдаёт абсолютный путь к нему.
type Files struct {
	value string
	Dir   string
	Mode  os.FileMode
	init  sync.Once
}

func (f *Files) Path(ctx context.Context) string {
	f.init.Do(func() {
		mode := f.Mode
		if mode == 0 {
			mode = 0o755
		}

		abs := lo.Must(filepath.Abs(f.Dir))
		lo.Must0(os.MkdirAll(abs, mode))

		f.value = abs

		logger(ctx).Info(
			"storage directory ready",
			slog.String("dir", abs),
		)
	})

	return f.value
}
