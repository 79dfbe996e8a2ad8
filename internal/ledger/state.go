package ledger

// Map is journaled key/value state. Values must be treated as immutable, writes go through Set
type Map[K comparable, V any] struct {
	data map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: make(map[K]V)}
}

// Get returns the zero value for absent keys
func (m *Map[K, V]) Get(key K) V {
	return m.data[key]
}

func (m *Map[K, V]) Lookup(key K) (V, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *Map[K, V]) Set(tx *Tx, key K, value V) {
	prev, existed := m.data[key]
	tx.record(func() {
		if existed {
			m.data[key] = prev
		} else {
			delete(m.data, key)
		}
	})
	m.data[key] = value
}

func (m *Map[K, V]) Delete(tx *Tx, key K) {
	prev, existed := m.data[key]
	if !existed {
		return
	}
	tx.record(func() {
		m.data[key] = prev
	})
	delete(m.data, key)
}

// Range iterates in unspecified order until f returns false
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	for k, v := range m.data {
		if !f(k, v) {
			return
		}
	}
}

func (m *Map[K, V]) Len() int {
	return len(m.data)
}
