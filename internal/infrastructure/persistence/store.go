package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"

	"tg_exchange/internal/domain"
	"tg_exchange/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// Имена коллекций. У каждой фиксированная форма: массив записей либо
// одиночный объект — форма задаётся типом репозитория при записи.
const (
	CollectionUsers       = "users"
	CollectionDeals       = "deals"
	CollectionWithdrawals = "withdrawals"
	CollectionConfig      = "config"
	CollectionStates      = "states"
	CollectionBroadcasts  = "broadcasts"
	CollectionRaffles     = "raffles"
)

// Store — плоское JSON-хранилище: одна коллекция — один файл в каталоге.
// Чтения идут через короткий TTL-кэш; записи — во временный файл с
// переименованием, чтобы читатель никогда не видел недописанный документ.
// Транзакций нет: read-modify-write под мьютексом коллекции, как и
// предполагает модель нагрузки.
type Store struct {
	dir   string
	cache *gocache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(dir string, cacheTTL time.Duration) *Store {
	return &Store{
		dir:   dir,
		cache: gocache.New(cacheTTL, time.Minute),
		locks: make(map[string]*sync.Mutex),
	}
}

// Locker возвращает мьютекс коллекции для read-modify-write циклов.
func (s *Store) Locker(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locks[collection]; !ok {
		s.locks[collection] = &sync.Mutex{}
	}

	return s.locks[collection]
}

// Load читает коллекцию в dest. Отсутствующий файл — пустая коллекция.
func (s *Store) Load(collection string, dest any) error {
	if raw, ok := s.cache.Get(collection); ok {
		if err := json.Unmarshal(raw.([]byte), dest); err != nil {
			return domain.WrapError(err, errcodes.StorageCorrupted, "failed to decode cached document")
		}
		return nil
	}

	raw, err := os.ReadFile(s.path(collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return domain.WrapError(err, errcodes.InternalServerError, "failed to read collection")
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return domain.WrapError(err, errcodes.StorageCorrupted,
			fmt.Sprintf("collection %q is not valid json", collection))
	}

	s.cache.SetDefault(collection, raw)

	return nil
}

// Save пишет документ коллекции целиком и обновляет кэш.
func (s *Store) Save(collection string, doc any) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to encode document")
	}

	tmp := s.path(collection) + ".tmp"

	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to write temp file")
	}

	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to replace collection file")
	}

	s.cache.SetDefault(collection, raw)

	return nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}
