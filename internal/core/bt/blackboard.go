package bt

import (
	"reflect"
	"sort"
)

// Kind tags the type a blackboard value was stored under.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindObject
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindPointer:
		return "pointer"
	default:
		return "invalid"
	}
}

// Releaser is implemented by objects that hold resources the blackboard must give
// back when the entry is overwritten, removed or cleared.
type Releaser interface {
	Release()
}

type entry struct {
	kind    Kind
	value   any
	destroy func(any)
}

func (e entry) release() {
	switch e.kind {
	case KindPointer:
		if e.destroy != nil {
			e.destroy(e.value)
		}
	case KindObject:
		if r, ok := e.value.(Releaser); ok {
			r.Release()
		}
	}
}

// Blackboard is the key/value scratchpad shared by every node of one tree.
//
// Typed getters return the caller's default when the key is missing or was stored
// under another kind; values are never coerced. The blackboard is not synchronized:
// it belongs to a single tree, which is ticked from one goroutine at a time.
// The zero value is an empty blackboard ready to use.
type Blackboard struct {
	data map[string]entry
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]entry)}
}

func (bb *Blackboard) set(key string, e entry) {
	if bb.data == nil {
		bb.data = make(map[string]entry)
	}
	if old, ok := bb.data[key]; ok && !sameRef(old, e) {
		old.release()
	}
	bb.data[key] = e
}

func (bb *Blackboard) get(key string, kind Kind) (any, bool) {
	e, ok := bb.data[key]
	if !ok || e.kind != kind {
		return nil, false
	}
	return e.value, true
}

// sameRef reports whether e re-stores the very object or pointer already held by old.
// Re-storing it must not release it.
func sameRef(old, e entry) bool {
	if old.kind != e.kind || (e.kind != KindObject && e.kind != KindPointer) {
		return false
	}
	if old.value == nil || e.value == nil {
		return old.value == nil && e.value == nil
	}
	// A comparable static type may still hold uncomparable dynamic values
	// (a struct with an interface field holding a slice), so check the values.
	a, b := reflect.ValueOf(old.value), reflect.ValueOf(e.value)
	if a.Type() != b.Type() || !a.Comparable() || !b.Comparable() {
		return false
	}
	return old.value == e.value
}

func (bb *Blackboard) SetInt(key string, v int) { bb.set(key, entry{kind: KindInt, value: v}) }

func (bb *Blackboard) SetFloat(key string, v float64) {
	bb.set(key, entry{kind: KindFloat, value: v})
}

func (bb *Blackboard) SetBool(key string, v bool) { bb.set(key, entry{kind: KindBool, value: v}) }

func (bb *Blackboard) SetString(key string, v string) {
	bb.set(key, entry{kind: KindString, value: v})
}

// SetObject stores an object reference. If obj implements Releaser it is released
// when the entry is dropped.
func (bb *Blackboard) SetObject(key string, obj any) {
	bb.set(key, entry{kind: KindObject, value: obj})
}

// SetPointer stores an opaque value with an optional destructor, invoked when the
// entry is overwritten, removed or cleared.
func (bb *Blackboard) SetPointer(key string, ptr any, destroy func(any)) {
	bb.set(key, entry{kind: KindPointer, value: ptr, destroy: destroy})
}

func (bb *Blackboard) GetInt(key string, def int) int {
	if v, ok := bb.get(key, KindInt); ok {
		return v.(int)
	}
	return def
}

func (bb *Blackboard) GetFloat(key string, def float64) float64 {
	if v, ok := bb.get(key, KindFloat); ok {
		return v.(float64)
	}
	return def
}

func (bb *Blackboard) GetBool(key string, def bool) bool {
	if v, ok := bb.get(key, KindBool); ok {
		return v.(bool)
	}
	return def
}

func (bb *Blackboard) GetString(key string, def string) string {
	if v, ok := bb.get(key, KindString); ok {
		return v.(string)
	}
	return def
}

func (bb *Blackboard) GetObject(key string, def any) any {
	if v, ok := bb.get(key, KindObject); ok {
		return v
	}
	return def
}

func (bb *Blackboard) GetPointer(key string, def any) any {
	if v, ok := bb.get(key, KindPointer); ok {
		return v
	}
	return def
}

// Has checks if a key exists regardless of its kind.
func (bb *Blackboard) Has(key string) bool {
	_, ok := bb.data[key]
	return ok
}

// KindOf returns the kind a key was stored under.
func (bb *Blackboard) KindOf(key string) (Kind, bool) {
	e, ok := bb.data[key]
	return e.kind, ok
}

// Lookup returns the raw value and kind stored under key.
func (bb *Blackboard) Lookup(key string) (any, Kind, bool) {
	e, ok := bb.data[key]
	return e.value, e.kind, ok
}

// Remove deletes a key, releasing its value. It reports whether the key existed.
func (bb *Blackboard) Remove(key string) bool {
	e, ok := bb.data[key]
	if !ok {
		return false
	}
	delete(bb.data, key)
	e.release()
	return true
}

// Clear removes every key, releasing all values.
func (bb *Blackboard) Clear() {
	old := bb.data
	bb.data = make(map[string]entry)
	for _, e := range old {
		e.release()
	}
}

// Keys returns all keys, sorted.
func (bb *Blackboard) Keys() []string {
	keys := make([]string, 0, len(bb.data))
	for key := range bb.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (bb *Blackboard) Len() int { return len(bb.data) }

// Range calls fn for every entry in key order until fn returns false.
func (bb *Blackboard) Range(fn func(key string, kind Kind, value any) bool) {
	for _, key := range bb.Keys() {
		e, ok := bb.data[key]
		if !ok {
			continue
		}
		if !fn(key, e.kind, e.value) {
			return
		}
	}
}
