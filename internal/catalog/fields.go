// internal/catalog/fields.go
package catalog

// Fields is a string map that remembers the order in which keys were first
// set. Overwriting a key keeps its original position. The zero value is
// ready to use.
type Fields struct {
	keys   []string
	values map[string]string
}

// Set stores value under key.
func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	return len(f.keys)
}

// Overlay copies every entry of other into f; other wins on collisions.
func (f *Fields) Overlay(other *Fields) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		f.Set(k, other.values[k])
	}
}

// Map returns a plain copy of the entries.
func (f *Fields) Map() map[string]string {
	m := make(map[string]string, len(f.keys))
	for _, k := range f.keys {
		m[k] = f.values[k]
	}
	return m
}

// SpecificationMap holds specification terms and their values.
type SpecificationMap struct {
	Fields
}

// ProductRecord is one exported row. It is not modified after it has been
// appended to a RunState.
type ProductRecord struct {
	Fields
}

// SellerOffer is one row of a product's seller table.
type SellerOffer struct {
	Seller   string
	Price    string
	HasPrice bool
}
