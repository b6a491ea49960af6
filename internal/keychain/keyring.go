package keychain

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"sync"

	"github.com/zalando/go-keyring"
)

// indexAccount holds the JSON list of accounts stored under a keyring
// service. go-keyring cannot enumerate, so wildcard queries walk this index.
// Records need a non-empty account, so the index never shadows one.
const indexAccount = ""

// keyringAPI is the subset of go-keyring the backend calls.
type keyringAPI interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Set(service, user, password string) error { return keyring.Set(service, user, password) }
func (osKeyring) Get(service, user string) (string, error)  { return keyring.Get(service, user) }
func (osKeyring) Delete(service, user string) error         { return keyring.Delete(service, user) }

// envelope is the keyring password for one record.
type envelope struct {
	Generic    []byte `json:"generic,omitempty"`
	Data       []byte `json:"data"`
	Accessible Token  `json:"accessible,omitempty"`
}

// KeyringBackend stores records in the OS keyring via zalando/go-keyring:
// Keychain on macOS, Secret Service on Linux, Credential Manager on Windows.
//
// The access group is folded into the keyring service name as
// "service/group", each part path-escaped, so a query without an access
// group only sees records written without one.
// Accessibility is recorded but not enforced; the OS keyring applies its own
// protection.
type KeyringBackend struct {
	mu sync.Mutex
	kr keyringAPI
}

// NewKeyringBackend returns a Backend on the OS keyring.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{kr: osKeyring{}}
}

func keyringService(q Query) string {
	service := url.PathEscape(q.Service)
	if q.AccessGroup == "" {
		return service
	}
	return service + "/" + url.PathEscape(q.AccessGroup)
}

func (b *KeyringBackend) Insert(q Query) Status {
	if q.Service == "" || len(q.Account) == 0 {
		return StatusParam
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	service, account := keyringService(q), string(q.Account)
	if _, err := b.kr.Get(service, account); err == nil {
		return StatusDuplicateItem
	} else if !errors.Is(err, keyring.ErrNotFound) {
		return keyringStatus(err)
	}

	if st := b.write(service, account, envelope{Generic: q.Generic, Data: q.Data, Accessible: q.Accessible}); st != StatusSuccess {
		return st
	}

	accounts, st := b.loadIndex(service)
	if st == StatusSuccess {
		if !slices.Contains(accounts, account) {
			accounts = append(accounts, account)
		}
		st = b.saveIndex(service, accounts)
	}
	if st != StatusSuccess {
		// An unindexed record would be invisible to wildcard deletes.
		if err := b.kr.Delete(service, account); err != nil {
			slog.Warn("failed to roll back unindexed keyring record", "service", service, "account", account, "error", err)
		}
	}
	return st
}

func (b *KeyringBackend) Update(match Query, data []byte) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	service := keyringService(match)
	found, st := b.matching(match)
	if st != StatusSuccess {
		return st
	}
	for account, env := range found {
		env.Data = data
		if st := b.write(service, account, env); st != StatusSuccess {
			return st
		}
	}
	if len(found) == 0 {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (b *KeyringBackend) Delete(q Query) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	service := keyringService(q)
	found, st := b.matching(q)
	if st != StatusSuccess {
		return st
	}
	if len(found) == 0 {
		return StatusItemNotFound
	}
	for account := range found {
		if err := b.kr.Delete(service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return keyringStatus(err)
		}
	}

	accounts, st := b.loadIndex(service)
	if st != StatusSuccess {
		return st
	}
	kept := accounts[:0]
	for _, a := range accounts {
		if _, gone := found[a]; !gone {
			kept = append(kept, a)
		}
	}
	return b.saveIndex(service, kept)
}

func (b *KeyringBackend) Find(q Query) (Status, *Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	found, st := b.matching(q)
	if st != StatusSuccess {
		return st, nil
	}
	// Prefer the addressed account; otherwise any match will do.
	env, ok := found[string(q.Account)]
	if !ok {
		for _, e := range found {
			env, ok = e, true
			break
		}
	}
	if !ok {
		return StatusItemNotFound, nil
	}

	res := &Result{}
	if q.ReturnData {
		res.Data = env.Data
	}
	if q.ReturnAttributes {
		res.Accessible = env.Accessible
	}
	return StatusSuccess, res
}

// matching loads every record under the query's service that satisfies its
// attribute filters, keyed by account.
func (b *KeyringBackend) matching(q Query) (map[string]envelope, Status) {
	if q.Service == "" {
		return nil, StatusParam
	}
	service := keyringService(q)

	var accounts []string
	if q.Account != nil {
		if len(q.Account) == 0 {
			return map[string]envelope{}, StatusSuccess
		}
		accounts = []string{string(q.Account)}
	} else {
		var st Status
		if accounts, st = b.loadIndex(service); st != StatusSuccess {
			return nil, st
		}
	}

	found := make(map[string]envelope)
	for _, account := range accounts {
		env, st := b.read(service, account)
		if st == StatusItemNotFound {
			continue
		}
		if st != StatusSuccess {
			return nil, st
		}
		if q.Generic != nil && !bytes.Equal(env.Generic, q.Generic) {
			continue
		}
		if q.Accessible != "" && env.Accessible != q.Accessible {
			continue
		}
		found[account] = env
	}
	return found, StatusSuccess
}

func (b *KeyringBackend) read(service, account string) (envelope, Status) {
	raw, err := b.kr.Get(service, account)
	if err != nil {
		return envelope{}, keyringStatus(err)
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		slog.Warn("unreadable keyring record", "service", service, "account", account, "error", err)
		return envelope{}, StatusIO
	}
	return env, StatusSuccess
}

func (b *KeyringBackend) write(service, account string, env envelope) Status {
	raw, err := json.Marshal(env)
	if err != nil {
		return StatusParam
	}
	if err := b.kr.Set(service, account, string(raw)); err != nil {
		return keyringStatus(err)
	}
	return StatusSuccess
}

func (b *KeyringBackend) loadIndex(service string) ([]string, Status) {
	raw, err := b.kr.Get(service, indexAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, StatusSuccess
		}
		return nil, keyringStatus(err)
	}
	var accounts []string
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		slog.Warn("corrupt keyring index, starting fresh", "service", service, "error", err)
		return nil, StatusSuccess
	}
	return accounts, StatusSuccess
}

func (b *KeyringBackend) saveIndex(service string, accounts []string) Status {
	if len(accounts) == 0 {
		if err := b.kr.Delete(service, indexAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("failed to clean up empty keyring index", "service", service, "error", err)
		}
		return StatusSuccess
	}

	raw, err := json.Marshal(accounts)
	if err != nil {
		return StatusParam
	}
	if err := b.kr.Set(service, indexAccount, string(raw)); err != nil {
		return keyringStatus(err)
	}
	return StatusSuccess
}

func keyringStatus(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, keyring.ErrNotFound):
		return StatusItemNotFound
	case errors.Is(err, keyring.ErrSetDataTooBig):
		return StatusParam
	}
	return StatusIO
}
