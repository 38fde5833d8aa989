package lstore

import (
	"errors"
	"sync"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	mu sync.Mutex
	db *db.Database
}

// NewLocalStore creates a new local store instance backed by a fresh
// db.Database. The store is not distributed and only lives in this process.
func NewLocalStore() store.IStore {
	return &storeImpl{db: db.New()}
}

// translate maps database errors onto store errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrWrongType):
		return store.ErrWrongType
	default:
		return store.NewError(store.RetCInternalError, err.Error())
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, found, err := s.db.Get(key)
	if err != nil || !found {
		return nil, false, translate(err)
	}
	return []byte(val), true, nil
}

func (s *storeImpl) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db.Set(key, string(value))
	return nil
}

func (s *storeImpl) Del(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Del(key), nil
}

func (s *storeImpl) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, s.db.Len())
	s.db.Keys(func(key string) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (s *storeImpl) ZAdd(key string, score float64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.db.ZAdd(key, score, name)
	return added, translate(err)
}

func (s *storeImpl) ZRem(key, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.db.ZRem(key, name)
	if errors.Is(err, db.ErrNoSuchKey) {
		return false, nil
	}
	return removed, translate(err)
}

func (s *storeImpl) ZScore(key, name string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, found, err := s.db.ZScore(key, name)
	if errors.Is(err, db.ErrNoSuchKey) {
		return 0, false, nil
	}
	return score, found, translate(err)
}

func (s *storeImpl) ZQuery(key string, score float64, name string, offset, limit int64) ([]store.ZMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]store.ZMember, 0)
	err := s.db.ZQuery(key, score, name, offset, limit, func(n string, sc float64) bool {
		members = append(members, store.ZMember{Name: n, Score: sc})
		return true
	})
	if err != nil {
		return nil, translate(err)
	}
	return members, nil
}

func (s *storeImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	Logger.Debugf("closing local store with %d keys", s.db.Len())
	s.db = db.New()
	return nil
}
