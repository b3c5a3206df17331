package models

import (
	"bytes"
	"encoding/json"
)

// Payload is an insertion-ordered string map used for push data.
type Payload struct {
	keys   []string
	values map[string]string
}

// Set adds or replaces a key. Replacing keeps the original position.
func (p *Payload) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// SetIf adds the key only when value is non-empty.
func (p *Payload) SetIf(key, value string) {
	if value != "" {
		p.Set(key, value)
	}
}

func (p Payload) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Payload) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p Payload) Len() int {
	return len(p.keys)
}

// Map returns an unordered copy, the shape gateways expect.
func (p Payload) Map() map[string]string {
	out := make(map[string]string, len(p.keys))
	for _, k := range p.keys {
		out[k] = p.values[k]
	}
	return out
}

func (p Payload) Clone() Payload {
	var c Payload
	for _, k := range p.keys {
		c.Set(k, p.values[k])
	}
	return c
}

// MarshalJSON writes the keys in insertion order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
