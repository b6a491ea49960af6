package keychain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseQuery(t *testing.T) {
	s := New("com.example", "team.shared", NewMemoryBackend())

	q := s.baseQuery()
	assert.Equal(t, Query{
		Class:       ClassGenericPassword,
		Service:     "com.example",
		AccessGroup: "team.shared",
	}, q)
}

func TestKeyQuerySetsGenericAndAccount(t *testing.T) {
	s := New("com.example", "", NewMemoryBackend())

	q := s.keyQuery("api/token", "")
	assert.Equal(t, []byte("api/token"), q.Generic)
	assert.Equal(t, []byte("api/token"), q.Account)
	assert.Empty(t, q.Accessible)
	assert.Empty(t, q.AccessGroup)
	assert.Nil(t, q.Data)
}

func TestInsertQueryCarriesAccessibility(t *testing.T) {
	s := New("com.example", "", NewMemoryBackend())

	q := s.insertQuery("k", []byte("v"), WhenPasscodeSetThisDeviceOnly)
	assert.Equal(t, Token("akpu"), q.Accessible)
	assert.Equal(t, []byte("v"), q.Data)
	assert.Equal(t, []byte("k"), q.Account)
}

func TestReadQueryHasNoAccessibilityFilter(t *testing.T) {
	s := New("com.example", "", NewMemoryBackend())

	q := s.readQuery("k")
	assert.Empty(t, q.Accessible)
	assert.Equal(t, MatchLimitOne, q.MatchLimit)
	assert.True(t, q.ReturnData)
	assert.False(t, q.ReturnAttributes)
}

func TestQueriesAreDeterministic(t *testing.T) {
	s := New("com.example", "grp", NewMemoryBackend())

	assert.Equal(t, s.insertQuery("k", []byte("v"), WhenUnlocked), s.insertQuery("k", []byte("v"), WhenUnlocked))
	assert.Equal(t, s.readQuery("k"), s.readQuery("k"))
	assert.Equal(t, s.keyQuery("k", ""), s.keyQuery("k", ""))
}
