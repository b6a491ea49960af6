// Package keychain stores typed secrets in a platform secret store.
//
// A Store is scoped to a namespace (the keychain "service" attribute) and an
// optional access group. Every record is a generic password whose account
// and generic attributes hold the caller's key. Values are serialized with a
// Codec and written with an accessibility class; when none is given the class
// is WhenUnlocked, so secrets are unreadable while the device is locked.
//
// The storage engine is a Backend. SystemBackend talks to the macOS Keychain,
// KeyringBackend to the OS keyring, and MemoryBackend is used in tests.
package keychain

import "fmt"

// Status is a backend result code. Values mirror the Security framework's
// OSStatus codes.
type Status int32

const (
	StatusSuccess       Status = 0
	StatusUnimplemented Status = -4
	StatusIO            Status = -36
	StatusParam         Status = -50
	StatusDuplicateItem Status = -25299
	StatusItemNotFound  Status = -25300
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnimplemented:
		return "unimplemented"
	case StatusIO:
		return "I/O error"
	case StatusParam:
		return "invalid parameter"
	case StatusDuplicateItem:
		return "duplicate item"
	case StatusItemNotFound:
		return "item not found"
	}
	return fmt.Sprintf("status %d", int32(s))
}

// ItemClass is the kind of record a query addresses.
type ItemClass string

// ClassGenericPassword is the only item class this package writes.
const ClassGenericPassword ItemClass = "genp"

// MatchLimit bounds how many records a Find returns.
type MatchLimit int

const (
	MatchLimitDefault MatchLimit = iota
	MatchLimitOne
	MatchLimitAll
)

// Query addresses records in a Backend. Empty strings and nil slices are
// unset and match any value.
type Query struct {
	Class       ItemClass
	Service     string
	AccessGroup string

	Generic []byte
	Account []byte

	// Data is the value written by Insert. It is never used for matching.
	Data       []byte
	Accessible Token

	MatchLimit       MatchLimit
	ReturnData       bool
	ReturnAttributes bool
}

// Result is a record returned from Find.
type Result struct {
	Data       []byte
	Accessible Token
}

// Backend is the secret store the Store delegates to. Implementations must
// report a duplicate insert as StatusDuplicateItem and a miss as
// StatusItemNotFound.
type Backend interface {
	Insert(q Query) Status
	Update(match Query, data []byte) Status
	Delete(q Query) Status
	Find(q Query) (Status, *Result)
}
