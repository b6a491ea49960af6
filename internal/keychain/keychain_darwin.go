//go:build darwin

package keychain

import (
	"errors"
	"fmt"

	gokeychain "github.com/keybase/go-keychain"
)

var accessibleConstants = map[Token]gokeychain.Accessible{
	TokenFor(AfterFirstUnlock):               gokeychain.AccessibleAfterFirstUnlock,
	TokenFor(AfterFirstUnlockThisDeviceOnly): gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly,
	TokenFor(WhenPasscodeSetThisDeviceOnly):  gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly,
	TokenFor(WhenUnlocked):                   gokeychain.AccessibleWhenUnlocked,
	TokenFor(WhenUnlockedThisDeviceOnly):     gokeychain.AccessibleWhenUnlockedThisDeviceOnly,
}

// SystemBackend stores records in the macOS Keychain as generic passwords.
// Records are never synchronized to iCloud.
//
// go-keychain does not expose kSecAttrGeneric, so the key is matched on the
// account attribute alone. The Keychain treats a query without an access
// group as matching every group the process may read, so a store with no
// group can see records written by a grouped store in the same namespace.
type SystemBackend struct{}

// NewSystemBackend returns a Keychain-backed Backend.
func NewSystemBackend() *SystemBackend {
	return &SystemBackend{}
}

func (b *SystemBackend) Insert(q Query) Status {
	item := toItem(q)
	if q.Account != nil {
		item.SetLabel(fmt.Sprintf("%s: %s", q.Service, q.Account))
	}
	item.SetData(q.Data)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	return statusOf(gokeychain.AddItem(item))
}

func (b *SystemBackend) Update(match Query, data []byte) Status {
	update := gokeychain.NewItem()
	update.SetData(data)
	return statusOf(gokeychain.UpdateItem(toItem(match), update))
}

func (b *SystemBackend) Delete(q Query) Status {
	return statusOf(gokeychain.DeleteItem(toItem(q)))
}

func (b *SystemBackend) Find(q Query) (Status, *Result) {
	results, err := gokeychain.QueryItem(toItem(q))
	if st := statusOf(err); st != StatusSuccess {
		return st, nil
	}
	if len(results) == 0 {
		return StatusItemNotFound, nil
	}
	return StatusSuccess, &Result{Data: results[0].Data}
}

func toItem(q Query) gokeychain.Item {
	item := gokeychain.NewItem()
	item.SetSecClass(gokeychain.SecClassGenericPassword)
	if q.Service != "" {
		item.SetService(q.Service)
	}
	if q.AccessGroup != "" {
		item.SetAccessGroup(q.AccessGroup)
	}
	if q.Account != nil {
		item.SetAccount(string(q.Account))
	}
	if acc, ok := accessibleConstants[q.Accessible]; ok {
		item.SetAccessible(acc)
	}
	switch q.MatchLimit {
	case MatchLimitOne:
		item.SetMatchLimit(gokeychain.MatchLimitOne)
	case MatchLimitAll:
		item.SetMatchLimit(gokeychain.MatchLimitAll)
	}
	if q.ReturnData {
		item.SetReturnData(true)
	}
	if q.ReturnAttributes {
		item.SetReturnAttributes(true)
	}
	return item
}

func statusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var kerr gokeychain.Error
	if errors.As(err, &kerr) {
		return Status(kerr)
	}
	return StatusParam
}
