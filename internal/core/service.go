package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/scorelog/internal/catalog"
	"github.com/JonMunkholm/scorelog/internal/config"
	"github.com/JonMunkholm/scorelog/internal/entry"
	"github.com/JonMunkholm/scorelog/internal/errlog"
	"github.com/JonMunkholm/scorelog/internal/logging"
	"github.com/JonMunkholm/scorelog/internal/security"
	"github.com/JonMunkholm/scorelog/internal/storage"
	"github.com/JonMunkholm/scorelog/internal/validation"
)

// Persisted keys, relative to the storage namespace.
const (
	keyEntries  = "entries"
	keyLanguage = "language"
)

// Service owns the entry collection and every operation on it.
type Service struct {
	cfg       *config.Config
	store     *storage.Adapter
	catalog   catalog.Provider
	validator *validation.Validator
	errLog    *errlog.Log
	limiter   *security.RateLimiter
	gate      *MutationGate

	mu       sync.RWMutex
	entries  *entry.Collection
	language string
}

// Deps are the collaborators a Service is built from. Nil fields get
// defaults: config.Default, the built-in catalog, a fresh error log and a
// memory store.
type Deps struct {
	Config   *config.Config
	Store    *storage.Adapter
	Catalog  catalog.Provider
	ErrorLog *errlog.Log
}

// NewService loads the persisted collection and language from deps.Store.
// An unavailable store is not an error: the service then keeps its state in
// memory only.
func NewService(ctx context.Context, deps Deps) (*Service, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	errLog := deps.ErrorLog
	if errLog == nil {
		errLog = errlog.New(cfg.ErrorLog.Capacity, errlog.WithOrigin("scorelog"))
	}
	provider := deps.Catalog
	if provider == nil {
		provider = catalog.Default()
	}
	store := deps.Store
	if store == nil {
		store = storage.New(storage.NewMemory(), cfg.Storage.Namespace,
			storage.WithObfuscationKey(cfg.Storage.ObfuscationKey),
			storage.WithErrorLog(errLog))
	}

	s := &Service{
		cfg:     cfg,
		store:   store,
		catalog: provider,
		validator: validation.ForEntries(provider, validation.EntryOptions{
			MaxNoteLength:     cfg.Entry.MaxNoteLength,
			EnforceScoreRange: cfg.Entry.EnforceScoreRange,
			ErrorLog:          errLog,
		}),
		errLog:   errLog,
		limiter:  security.NewRateLimiter(cfg.Import.RateLimit, cfg.Import.RateWindow),
		gate:     NewMutationGate(cfg.Entry.MutationWait),
		language: DefaultLanguage,
	}

	logger := logging.FromContext(ctx)
	if !store.Available() {
		logger.Warn("storage unavailable, changes will not be saved", "namespace", store.Namespace())
	}

	stored := s.loadEntries()
	coll, dropped := entry.NewCollection(stored)
	if dropped > 0 {
		logger.Warn("dropped duplicate entries from storage", "count", dropped)
		s.errLog.Storage("duplicate entry ids in stored collection", entry.ErrDuplicateID,
			map[string]any{"dropped": dropped})
	}
	s.entries = coll

	var lang string
	if store.GetItem(keyLanguage, false, &lang) && slices.Contains(SupportedLanguages, lang) {
		s.language = lang
	}

	logger.Debug("service ready", "entries", coll.Len(), "language", s.language)
	return s, nil
}

// loadEntries reads the stored collection. Data written with the other
// obfuscation setting is still readable, so toggling STORAGE_OBFUSCATE does
// not hide existing entries.
func (s *Service) loadEntries() []entry.LogEntry {
	obf := s.cfg.Storage.Obfuscate
	for _, deobf := range []bool{obf, !obf} {
		var stored []entry.LogEntry
		if s.store.GetItem(keyEntries, deobf, &stored) {
			return stored
		}
	}
	return nil
}

// opContext tags ctx with a fresh operation id and returns its logger.
func opContext(ctx context.Context, op string) (context.Context, *slog.Logger) {
	ctx = logging.WithOperationID(ctx, uuid.NewString())
	return ctx, logging.WithFields(ctx, "op", op)
}

// persist writes value under key with retry. With the store unavailable it
// is a no-op.
func (s *Service) persist(ctx context.Context, key string, value any, obfuscate bool) error {
	if !s.store.Available() {
		return nil
	}
	err := errlog.WithRetry(ctx, func(context.Context) error {
		return s.store.SetItem(key, value, obfuscate)
	}, s.cfg.Storage.RetryMax, s.cfg.Storage.RetryBaseDelay)
	if err != nil {
		s.errLog.Storage("persist failed", err, map[string]any{
			"key":          key,
			"operation_id": logging.OperationID(ctx),
		})
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// errNoChange lets a mutate callback finish without persisting.
var errNoChange = errors.New("no change")

// mutate applies fn to a copy of the collection under the mutation gate and
// swaps the copy in only after it has been persisted. When fn or persist
// fails the current collection is left untouched.
func (s *Service) mutate(ctx context.Context, fn func(*entry.Collection) error) error {
	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release()

	s.mu.RLock()
	next := s.entries.Clone()
	s.mu.RUnlock()

	if err := fn(next); errors.Is(err, errNoChange) {
		return nil
	} else if err != nil {
		return err
	}
	if err := s.persist(ctx, keyEntries, next.Entries(), s.cfg.Storage.Obfuscate); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
	return nil
}

// Entries returns the collection ordered by cfg.
func (s *Service) Entries(cfg entry.SortConfig) []entry.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Sorted(cfg)
}

// Count returns the number of entries.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Get returns the entry with id.
func (s *Service) Get(id string) (entry.LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Get(id)
}

// Validate runs the entry rules over rec without changing any state.
func (s *Service) Validate(rec validation.Record) validation.Result {
	return s.validator.Validate(rec)
}

// Catalog returns the assessment catalog entries are checked against.
func (s *Service) Catalog() catalog.Provider {
	return s.catalog
}

// StorageAvailable reports whether changes are being saved.
func (s *Service) StorageAvailable() bool {
	return s.store.Available()
}

// ErrorStats summarizes the in-memory error log.
func (s *Service) ErrorStats() errlog.Stats {
	return s.errLog.Stats()
}

// ErrorLog exposes the in-memory error log.
func (s *Service) ErrorLog() *errlog.Log {
	return s.errLog
}

// Language returns the selected display-language code.
func (s *Service) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage stores the display-language code.
func (s *Service) SetLanguage(ctx context.Context, code string) error {
	ctx, logger := opContext(ctx, "set_language")

	if !slices.Contains(SupportedLanguages, code) {
		s.errLog.Validation("unsupported language", map[string]any{"code": code})
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	if err := s.persist(ctx, keyLanguage, code, false); err != nil {
		return err
	}

	s.mu.Lock()
	s.language = code
	s.mu.Unlock()
	logger.Info("language changed", "code", code)
	return nil
}

// Reset deletes every key under the namespace and empties the in-memory
// state, including the language.
func (s *Service) Reset(ctx context.Context) error {
	ctx, logger := opContext(ctx, "reset")

	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release()

	if s.store.Available() {
		if err := s.store.Clear(); err != nil {
			s.errLog.Storage("reset failed", err, map[string]any{"operation_id": logging.OperationID(ctx)})
			return fmt.Errorf("reset storage: %w", err)
		}
	}

	s.mu.Lock()
	removed := s.entries.Len()
	s.entries, _ = entry.NewCollection(nil)
	s.language = DefaultLanguage
	s.mu.Unlock()

	logger.Info("storage reset", "removed", removed)
	return nil
}

// WaitForDrain blocks until no mutation is in flight or ctx is done.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}

// GateStatus reports the mutation gate state.
func (s *Service) GateStatus() GateStatus {
	return s.gate.Status()
}
