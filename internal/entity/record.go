package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one decoded unit: named fields in the order the decoder produced them.
// Copies of a Record share the same fields.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// Field is a single name/value pair of a Record.
type Field struct {
	Name  string
	Value any
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{fields: orderedmap.New[string, any]()}
}

// RecordOf builds a record from fields, in order. Later duplicates overwrite earlier values in place.
func RecordOf(fields ...Field) Record {
	r := NewRecord()
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Set adds or replaces a field. A new field is appended; a replaced field keeps its position.
func (r Record) Set(name string, value any) {
	r.fields.Set(name, value)
}

func (r Record) Get(name string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(name)
}

func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns field names in order.
func (r Record) Keys() []string {
	out := make([]string, 0, r.Len())
	for _, f := range r.Fields() {
		out = append(out, f.Name)
	}
	return out
}

// Fields returns a snapshot of the record's fields in order.
func (r Record) Fields() []Field {
	if r.fields == nil {
		return nil
	}
	out := make([]Field, 0, r.fields.Len())
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		out = append(out, Field{Name: p.Key, Value: p.Value})
	}
	return out
}

// MarshalJSON encodes the record as a JSON object keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	r.fields = m
	return nil
}

func (r Record) String() string {
	parts := make([]string, 0, r.Len())
	for _, f := range r.Fields() {
		parts = append(parts, fmt.Sprintf("%s:%v", f.Name, f.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var _ json.Marshaler = Record{}
