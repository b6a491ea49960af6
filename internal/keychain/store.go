package keychain

import (
	"fmt"
	"log/slog"
	"sync"
)

// Store reads and writes typed secrets for one namespace and access group.
// Operations on a Store are serialized; separate Stores do not share a lock.
type Store struct {
	mu          sync.Mutex
	namespace   string
	accessGroup string
	backend     Backend
	codec       Codec
	strictReads bool
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCodec replaces the default JSONCodec.
func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithLogger sets the logger used for operation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithStrictReads makes GetValue report backend failures other than a
// missing item instead of treating them as absent.
func WithStrictReads() Option {
	return func(s *Store) { s.strictReads = true }
}

// New returns a Store over backend. An empty accessGroup means none.
func New(namespace, accessGroup string, backend Backend, opts ...Option) *Store {
	s := &Store{
		namespace:   namespace,
		accessGroup: accessGroup,
		backend:     backend,
		codec:       JSONCodec{},
		logger:      slog.With("component", "keychain"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("namespace", namespace)
	return s
}

// Namespace returns the service attribute shared by this store's records.
func (s *Store) Namespace() string { return s.namespace }

// AccessGroup returns the access group, or "" if none was given.
func (s *Store) AccessGroup() string { return s.accessGroup }

type setOptions struct {
	accessibility Accessibility
}

// SetOption configures a single write.
type SetOption func(*setOptions)

// WithAccessibility sets the protection class of a newly created record.
// It has no effect when the record already exists.
func WithAccessibility(a Accessibility) SetOption {
	return func(o *setOptions) { o.accessibility = a }
}

// SetValue stores value under key. A new record takes the requested
// accessibility (WhenUnlocked by default); an existing record keeps its
// accessibility and only has its data replaced. An accessibility outside the
// declared classes fails with StatusParam before anything is written.
func (s *Store) SetValue(key string, value any, opts ...SetOption) error {
	o := setOptions{accessibility: DefaultAccessibility}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if TokenFor(o.accessibility) == "" {
		s.logger.Warn("secret add rejected", "key", key, "accessibility", o.accessibility)
		return &BackendError{Op: "add", Status: StatusParam}
	}

	data, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrEncoding, key, err)
	}

	status := s.backend.Insert(s.insertQuery(key, data, o.accessibility))
	switch status {
	case StatusSuccess:
		s.logger.Debug("secret added", "key", key, "accessibility", o.accessibility)
		return nil
	case StatusDuplicateItem:
	default:
		s.logger.Warn("secret add failed", "key", key, "status", status)
		return &BackendError{Op: "add", Status: status}
	}

	// Updates never re-apply accessibility.
	status = s.backend.Update(s.keyQuery(key, ""), data)
	if status != StatusSuccess {
		s.logger.Warn("secret update failed", "key", key, "status", status)
		return &BackendError{Op: "update", Status: status}
	}
	s.logger.Debug("secret updated", "key", key)
	return nil
}

// GetValue decodes the secret under key into out, which must be a pointer.
// It reports false when the secret is absent. Unless the store was built
// with WithStrictReads, any backend failure is also reported as absent;
// decoding failures are always returned.
func (s *Store) GetValue(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, res := s.backend.Find(s.readQuery(key))
	if status != StatusSuccess || res == nil {
		if status != StatusSuccess && status != StatusItemNotFound {
			if s.strictReads {
				return false, &BackendError{Op: "get", Status: status}
			}
			s.logger.Warn("secret read failed, treating as absent", "key", key, "status", status)
		}
		return false, nil
	}

	if err := s.codec.Unmarshal(res.Data, out); err != nil {
		return false, fmt.Errorf("%w %q: %w", ErrDecoding, key, err)
	}
	return true, nil
}

// HasValue reports whether a secret exists under key. Backend failures
// report false.
func (s *Store) HasValue(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, res := s.backend.Find(s.readQuery(key))
	return status == StatusSuccess && res != nil
}

// Remove deletes the secret under key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.delete("delete", s.keyQuery(key, ""))
}

// RemoveAll deletes every secret in this store's namespace and access group,
// whatever its key. Other namespaces on the same backend are untouched.
func (s *Store) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.delete("delete all", s.baseQuery())
}

func (s *Store) delete(op string, q Query) error {
	status := s.backend.Delete(q)
	switch status {
	case StatusSuccess, StatusItemNotFound:
		s.logger.Debug("secret "+op, "key", string(q.Account), "status", status)
		return nil
	}
	return &BackendError{Op: op, Status: status}
}

// Accessibility reports the protection class recorded for key. It returns
// false if the secret is absent, the backend does not expose the attribute,
// or the recorded token is not one of the known classes.
func (s *Store) Accessibility(key string) (Accessibility, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.keyQuery(key, "")
	q.MatchLimit = MatchLimitOne
	q.ReturnAttributes = true

	status, res := s.backend.Find(q)
	if status != StatusSuccess || res == nil {
		return 0, false
	}
	return AccessibilityFor(res.Accessible)
}

// Set stores value under key in s.
func Set[T any](s *Store, key string, value T, opts ...SetOption) error {
	return s.SetValue(key, value, opts...)
}

// Get returns the value stored under key in s, and whether it was present.
func Get[T any](s *Store, key string) (T, bool, error) {
	var v T
	ok, err := s.GetValue(key, &v)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}
