package keychain

// baseQuery scopes every operation to the store's namespace and access group.
func (s *Store) baseQuery() Query {
	return Query{
		Class:       ClassGenericPassword,
		Service:     s.namespace,
		AccessGroup: s.accessGroup,
	}
}

// keyQuery adds the key under both the generic and account attributes, and
// the accessibility token when one is given. It does no I/O.
func (s *Store) keyQuery(key string, accessible Token) Query {
	q := s.baseQuery()
	q.Generic = []byte(key)
	q.Account = []byte(key)
	q.Accessible = accessible
	return q
}

func (s *Store) insertQuery(key string, data []byte, a Accessibility) Query {
	q := s.keyQuery(key, TokenFor(a))
	q.Data = data
	return q
}

func (s *Store) readQuery(key string) Query {
	q := s.keyQuery(key, "")
	q.MatchLimit = MatchLimitOne
	q.ReturnData = true
	return q
}
