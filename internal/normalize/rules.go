// ABOUTME: Decision-table helpers for extracting fields from provider payloads.
// ABOUTME: Each field tries an ordered list of gjson paths; the first well-typed value wins.
package normalize

import (
	"math"
	"sort"
	"time"

	"github.com/tidwall/gjson"
)

// self is the gjson path for the document itself (legacy top-level layout).
const self = "@this"

// rule extracts one field of T from the first matching path.
type rule[T any] struct {
	paths []string
	kind  gjson.Type
	apply func(dst *T, v gjson.Result)
}

func intField[T any](field func(*T) *int, paths ...string) rule[T] {
	return rule[T]{paths: paths, kind: gjson.Number, apply: func(dst *T, v gjson.Result) {
		*field(dst) = int(math.Round(v.Num))
	}}
}

func int64Field[T any](field func(*T) *int64, paths ...string) rule[T] {
	return rule[T]{paths: paths, kind: gjson.Number, apply: func(dst *T, v gjson.Result) {
		*field(dst) = v.Int()
	}}
}

func floatField[T any](field func(*T) *float64, paths ...string) rule[T] {
	return rule[T]{paths: paths, kind: gjson.Number, apply: func(dst *T, v gjson.Result) {
		*field(dst) = v.Num
	}}
}

func textField[T any](field func(*T) *string, paths ...string) rule[T] {
	return rule[T]{paths: paths, kind: gjson.String, apply: func(dst *T, v gjson.Result) {
		*field(dst) = v.Str
	}}
}

// applyRules runs every rule against doc. Values of the wrong type count as absent.
func applyRules[T any](doc gjson.Result, dst *T, rules []rule[T]) {
	for _, r := range rules {
		if v, ok := lookup(doc, r.kind, r.paths...); ok {
			r.apply(dst, v)
		}
	}
}

// lookup returns the first value of the wanted type found along paths.
func lookup(doc gjson.Result, kind gjson.Type, paths ...string) (gjson.Result, bool) {
	for _, p := range paths {
		v := doc.Get(p)
		if v.Type == kind {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// parse turns a raw payload into a document. Absent or malformed payloads yield an empty result.
func parse(payload []byte) gjson.Result {
	if len(payload) == 0 || !gjson.ValidBytes(payload) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(payload)
}

// section returns the first non-empty object found along paths.
func section(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		v := doc.Get(p)
		if isNonEmptyObject(v) {
			return v
		}
	}
	return gjson.Result{}
}

// first unwraps a list payload to its first element; objects pass through.
func first(doc gjson.Result) gjson.Result {
	if doc.IsArray() {
		items := doc.Array()
		if len(items) == 0 {
			return gjson.Result{}
		}
		return items[0]
	}
	return doc
}

// firstDevice returns the entry of a per-device map with the smallest key,
// so repeated runs over the same payload pick the same device.
func firstDevice(devices gjson.Result) gjson.Result {
	if !devices.IsObject() {
		return gjson.Result{}
	}
	entries := devices.Map()
	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		if isNonEmptyObject(v) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return gjson.Result{}
	}
	sort.Strings(keys)
	return entries[keys[0]]
}

func isNonEmptyObject(v gjson.Result) bool {
	if !v.IsObject() {
		return false
	}
	nonEmpty := false
	v.ForEach(func(_, _ gjson.Result) bool {
		nonEmpty = true
		return false
	})
	return nonEmpty
}

// sample is one (timestamp, level) pair of a provider time series.
type sample struct {
	at    int64
	level float64
}

// series reads [[timestamp, level, ...], ...] pairs, skipping null or non-numeric levels.
func series(v gjson.Result) []sample {
	if !v.IsArray() {
		return nil
	}
	var out []sample
	v.ForEach(func(_, pair gjson.Result) bool {
		if !pair.IsArray() {
			return true
		}
		parts := pair.Array()
		if len(parts) < 2 || parts[1].Type != gjson.Number {
			return true
		}
		out = append(out, sample{at: parts[0].Int(), level: parts[1].Num})
		return true
	})
	return out
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.0",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// timestamp accepts epoch milliseconds or one of the provider's GMT string layouts.
func timestamp(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC(), true
	case gjson.String:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v.Str); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
