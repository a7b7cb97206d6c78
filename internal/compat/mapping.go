// Package compat serves the legacy read contract: camelCase documents with a
// nested clients object, the shape the previous frontend consumed. Documents
// are translated field-for-field from the native snake_case shape; the
// translation is total and lossless in both directions.
package compat

// Mapping is a bidirectional field-name table for one entity. Keys absent
// from the table pass through unchanged, so new native fields surface in the
// legacy shape instead of silently disappearing.
type Mapping struct {
	toLegacy map[string]string
	toNative map[string]string
	children map[string]*Mapping
}

func NewMapping(fields map[string]string) *Mapping {
	m := &Mapping{
		toLegacy: make(map[string]string, len(fields)),
		toNative: make(map[string]string, len(fields)),
		children: make(map[string]*Mapping),
	}
	for native, legacy := range fields {
		m.toLegacy[native] = legacy
		m.toNative[legacy] = native
	}
	return m
}

// WithChild applies a nested mapping to every element of the named array
// field. The name is the native key; the legacy counterpart is resolved
// through the table.
func (m *Mapping) WithChild(nativeField string, child *Mapping) *Mapping {
	m.children[nativeField] = child
	return m
}

// ToLegacy renames native snake_case keys to their legacy camelCase names.
// Values are copied untouched except for mapped child arrays.
func (m *Mapping) ToLegacy(doc map[string]any) map[string]any {
	return m.rename(doc, m.toLegacy, func(child *Mapping, elem map[string]any) map[string]any {
		return child.ToLegacy(elem)
	})
}

// ToNative is the inverse of ToLegacy.
func (m *Mapping) ToNative(doc map[string]any) map[string]any {
	return m.rename(doc, m.toNative, func(child *Mapping, elem map[string]any) map[string]any {
		return child.ToNative(elem)
	})
}

func (m *Mapping) rename(doc map[string]any, table map[string]string,
	apply func(*Mapping, map[string]any) map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for key, value := range doc {
		target := key
		if renamed, ok := table[key]; ok {
			target = renamed
		}
		child := m.childFor(key)
		if child != nil {
			if list, ok := value.([]any); ok {
				mapped := make([]any, len(list))
				for i, elem := range list {
					if elemDoc, ok := elem.(map[string]any); ok {
						mapped[i] = apply(child, elemDoc)
					} else {
						mapped[i] = elem
					}
				}
				value = mapped
			}
		}
		out[target] = value
	}
	return out
}

// childFor accepts either naming convention so the same table drives both
// directions.
func (m *Mapping) childFor(key string) *Mapping {
	if child, ok := m.children[key]; ok {
		return child
	}
	if native, ok := m.toNative[key]; ok {
		if child, ok := m.children[native]; ok {
			return child
		}
	}
	return nil
}
