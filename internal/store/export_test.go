package store

// PanicInCriticalSection runs a panicking function under the store lock.
func PanicInCriticalSection(s *CounterMemoryStore) error {
	return s.locked(func() {
		panic("boom")
	})
}
