package value

import "github.com/ecmago/ecmago/internal/sym"

// PropertyDescriptor is a single property slot: either a data
// descriptor {value, writable} or an accessor descriptor {get, set},
// plus the shared enumerable/configurable attributes (spec.md §3.2).
type PropertyDescriptor struct {
	Value        Value
	Get, Set     *Object
	IsAccessor   bool
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// defaultDataDescriptor is the descriptor dense integer storage
// synthesises on read, per spec.md §3.2.
func defaultDataDescriptor(v Value) PropertyDescriptor {
	return PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// PropertyMap is an Object's property storage, split into the three
// key domains named in spec.md §3.2. The integer domain starts Dense
// (a packed slice) and silently converts to Sparse on the first
// non-default-attribute or out-of-range write.
type PropertyMap struct {
	dense  []Value // valid only while sparse == nil
	holes  []bool  // parallel to dense; true marks an elided index
	sparse map[uint32]*PropertyDescriptor

	strOrder []sym.Sym
	strMap   map[sym.Sym]*PropertyDescriptor

	symOrder []*Symbol
	symMap   map[*Symbol]*PropertyDescriptor
}

// NewPropertyMap returns an empty map with a dense integer domain.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{}
}

// IsDense reports whether the integer domain is still in its packed
// vector representation.
func (m *PropertyMap) IsDense() bool { return m.sparse == nil }

// GetOwn looks up key, returning its descriptor (synthesising the
// default one for dense-domain hits) and whether it exists.
func (m *PropertyMap) GetOwn(key PropertyKey) (PropertyDescriptor, bool) {
	switch key.Kind() {
	case KeyIndex:
		return m.getOwnIndex(key.Index())
	case KeyString:
		if d, ok := m.strMap[key.StringSym()]; ok {
			return *d, true
		}
	case KeySymbol:
		if d, ok := m.symMap[key.Symbol()]; ok {
			return *d, true
		}
	}
	return PropertyDescriptor{}, false
}

func (m *PropertyMap) getOwnIndex(idx uint32) (PropertyDescriptor, bool) {
	if m.sparse != nil {
		d, ok := m.sparse[idx]
		if !ok {
			return PropertyDescriptor{}, false
		}
		return *d, true
	}
	if idx >= uint32(len(m.dense)) || (m.holes != nil && m.holes[idx]) {
		return PropertyDescriptor{}, false
	}
	return defaultDataDescriptor(m.dense[idx]), true
}

// DefineOwn installs or overwrites key's descriptor. It returns false
// (a no-op) if the property already exists and is non-configurable and
// the attempted redefinition would change a protected attribute; the
// caller (the VM) turns that into a TypeError on strict writes.
func (m *PropertyMap) DefineOwn(key PropertyKey, d PropertyDescriptor) bool {
	switch key.Kind() {
	case KeyIndex:
		return m.defineIndex(key.Index(), d)
	case KeyString:
		return m.defineNamed(&m.strOrder, m.stringsMap(), key.StringSym(), d)
	case KeySymbol:
		return m.defineSymbol(key.Symbol(), d)
	}
	return false
}

func (m *PropertyMap) stringsMap() map[sym.Sym]*PropertyDescriptor {
	if m.strMap == nil {
		m.strMap = make(map[sym.Sym]*PropertyDescriptor)
	}
	return m.strMap
}

func (m *PropertyMap) defineNamed(order *[]sym.Sym, mp map[sym.Sym]*PropertyDescriptor, key sym.Sym, d PropertyDescriptor) bool {
	if existing, ok := mp[key]; ok {
		if !existing.Configurable && !existing.Writable && d.Writable {
			return false
		}
		*existing = d
		return true
	}
	*order = append(*order, key)
	cp := d
	mp[key] = &cp
	return true
}

func (m *PropertyMap) defineSymbol(key *Symbol, d PropertyDescriptor) bool {
	if m.symMap == nil {
		m.symMap = make(map[*Symbol]*PropertyDescriptor)
	}
	if existing, ok := m.symMap[key]; ok {
		if !existing.Configurable && !existing.Writable && d.Writable {
			return false
		}
		*existing = d
		return true
	}
	m.symOrder = append(m.symOrder, key)
	cp := d
	m.symMap[key] = &cp
	return true
}

// defineIndex writes the integer domain, converting Dense to Sparse
// the first time a non-default-attribute descriptor or an
// out-of-range index is written (spec.md §3.2).
func (m *PropertyMap) defineIndex(idx uint32, d PropertyDescriptor) bool {
	isDefault := !d.IsAccessor && d.Writable && d.Enumerable && d.Configurable
	if m.sparse == nil && isDefault && idx <= uint32(len(m.dense)) && idx < 1<<20 {
		for uint32(len(m.dense)) <= idx {
			m.dense = append(m.dense, Undefined())
			if m.holes != nil {
				m.holes = append(m.holes, true)
			}
		}
		m.dense[idx] = d.Value
		if m.holes != nil {
			m.holes[idx] = false
		}
		return true
	}
	m.convertToSparse()
	if existing, ok := m.sparse[idx]; ok {
		if !existing.Configurable && !existing.Writable && d.Writable {
			return false
		}
	}
	cp := d
	m.sparse[idx] = &cp
	return true
}

// convertToSparse migrates the dense vector into the sparse map,
// preserving every prior value and its default attributes (spec.md
// §3.2 invariant).
func (m *PropertyMap) convertToSparse() {
	if m.sparse != nil {
		return
	}
	m.sparse = make(map[uint32]*PropertyDescriptor, len(m.dense))
	for i, v := range m.dense {
		if m.holes != nil && m.holes[i] {
			continue
		}
		d := defaultDataDescriptor(v)
		m.sparse[uint32(i)] = &d
	}
	m.dense = nil
	m.holes = nil
}

// SetDataValue is the fast path used by `SetPropertyByName`/`ByValue`
// for an existing writable data property; it does not change
// attributes.
func (m *PropertyMap) SetDataValue(key PropertyKey, v Value) bool {
	d, ok := m.GetOwn(key)
	if !ok {
		return m.DefineOwn(key, defaultDataDescriptor(v))
	}
	if d.IsAccessor || !d.Writable {
		return false
	}
	d.Value = v
	return m.DefineOwn(key, d)
}

// Delete removes key; returns false if the property is
// non-configurable (the caller raises a TypeError in strict mode).
func (m *PropertyMap) Delete(key PropertyKey) bool {
	switch key.Kind() {
	case KeyIndex:
		return m.deleteIndex(key.Index())
	case KeyString:
		d, ok := m.strMap[key.StringSym()]
		if !ok {
			return true
		}
		if !d.Configurable {
			return false
		}
		delete(m.strMap, key.StringSym())
		m.strOrder = removeSym(m.strOrder, key.StringSym())
		return true
	case KeySymbol:
		d, ok := m.symMap[key.Symbol()]
		if !ok {
			return true
		}
		if !d.Configurable {
			return false
		}
		delete(m.symMap, key.Symbol())
		m.symOrder = removeSymbol(m.symOrder, key.Symbol())
		return true
	}
	return true
}

func (m *PropertyMap) deleteIndex(idx uint32) bool {
	if m.sparse != nil {
		d, ok := m.sparse[idx]
		if !ok {
			return true
		}
		if !d.Configurable {
			return false
		}
		delete(m.sparse, idx)
		return true
	}
	if idx >= uint32(len(m.dense)) {
		return true
	}
	if m.holes == nil {
		m.holes = make([]bool, len(m.dense))
	}
	m.holes[idx] = true
	m.dense[idx] = Undefined()
	return true
}

func removeSym(s []sym.Sym, target sym.Sym) []sym.Sym {
	for i, x := range s {
		if x == target {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}

func removeSymbol(s []*Symbol, target *Symbol) []*Symbol {
	for i, x := range s {
		if x == target {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}

// OwnKeys returns every own key in ECMA-262 OrdinaryOwnPropertyKeys
// order: ascending integer indices, then string keys in insertion
// order, then symbol keys in insertion order.
func (m *PropertyMap) OwnKeys() []PropertyKey {
	var keys []PropertyKey
	if m.sparse != nil {
		idxs := make([]uint32, 0, len(m.sparse))
		for idx := range m.sparse {
			idxs = append(idxs, idx)
		}
		sortUint32(idxs)
		for _, idx := range idxs {
			keys = append(keys, IndexKey(idx))
		}
	} else {
		for i, hole := range m.holesOrEmpty() {
			if !hole {
				keys = append(keys, IndexKey(uint32(i)))
			}
		}
	}
	for _, s := range m.strOrder {
		keys = append(keys, StringKey(s))
	}
	for _, s := range m.symOrder {
		keys = append(keys, SymbolKey(s))
	}
	return keys
}

func (m *PropertyMap) holesOrEmpty() []bool {
	if m.holes != nil {
		return m.holes
	}
	return make([]bool, len(m.dense))
}

func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Walk invokes fn for every reachable Value held directly in the map
// (dense/sparse/string/symbol domains), used by the GC tracer.
func (m *PropertyMap) Walk(fn func(Value)) {
	if m.sparse != nil {
		for _, d := range m.sparse {
			walkDescriptor(d, fn)
		}
	} else {
		for _, v := range m.dense {
			fn(v)
		}
	}
	for _, d := range m.strMap {
		walkDescriptor(d, fn)
	}
	for _, d := range m.symMap {
		walkDescriptor(d, fn)
	}
}

func walkDescriptor(d *PropertyDescriptor, fn func(Value)) {
	if d.IsAccessor {
		if d.Get != nil {
			fn(ObjectVal(d.Get))
		}
		if d.Set != nil {
			fn(ObjectVal(d.Set))
		}
		return
	}
	fn(d.Value)
}
