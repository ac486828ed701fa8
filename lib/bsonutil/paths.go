package bsonutil

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// --------------------------------------------------------------------------
// Missing Sentinel
// --------------------------------------------------------------------------

type missing struct{}

// Missing is the sentinel returned for paths that do not resolve.
var Missing any = missing{}

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v any) bool {
	_, ok := v.(missing)
	return ok
}

// --------------------------------------------------------------------------
// Field Access
// --------------------------------------------------------------------------

// GetField returns the value of a top-level field.
func GetField(doc bson.D, name string) (any, bool) {
	for _, e := range doc {
		if e.Key == name {
			return e.Value, true
		}
	}
	return nil, false
}

// SetField sets a top-level field, preserving its position if it exists
// and appending it otherwise.
func SetField(doc bson.D, name string, value any) bson.D {
	for i, e := range doc {
		if e.Key == name {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: name, Value: value})
}

// RemoveField removes a top-level field. Removing an absent field is a no-op.
func RemoveField(doc bson.D, name string) bson.D {
	for i, e := range doc {
		if e.Key == name {
			return append(doc[:i], doc[i+1:]...)
		}
	}
	return doc
}

// HasPath reports whether the dotted path resolves through subdocuments
// (array traversal intentionally excluded, matching the update engine's
// notion of "has").
func HasPath(doc bson.D, path string) bool {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		sub, ok := cur.(bson.D)
		if !ok {
			return false
		}
		v, ok := GetField(sub, part)
		if !ok {
			return false
		}
		cur = v
	}
	return true
}

// --------------------------------------------------------------------------
// Path Candidates (query semantics)
// --------------------------------------------------------------------------

// Candidates returns the values a dotted path may refer to inside doc,
// implementing the server's matching semantics: arrays along the path fan
// out into one candidate per element, numeric path parts index into
// arrays, and a path that dead-ends in a document yields the Missing
// sentinel so operators like $exists can see the difference between
// "absent" and "null".
func Candidates(doc any, path string) []any {
	if doc == nil {
		return nil
	}
	if path == "" {
		return []any{doc}
	}
	switch d := doc.(type) {
	case bson.D:
		part, rest, _ := strings.Cut(path, ".")
		sub, ok := GetField(d, part)
		if !ok {
			if rest == "" {
				return []any{Missing}
			}
			return Candidates(bson.D{}, rest)
		}
		if rest == "" {
			return []any{sub}
		}
		return Candidates(sub, rest)
	case bson.A:
		return candidatesInArray(d, path)
	default:
		return nil
	}
}

func candidatesInArray(arr bson.A, path string) []any {
	part, rest, _ := strings.Cut(path, ".")

	if idx, err := strconv.Atoi(part); err == nil {
		// The path part is an index.
		if idx < 0 || idx >= len(arr) {
			return nil
		}
		if rest == "" {
			return []any{arr[idx]}
		}
		return Candidates(arr[idx], rest)
	}

	// Fan out over the elements that carry the field.
	var out []any
	for _, item := range arr {
		sub, ok := item.(bson.D)
		if !ok {
			continue
		}
		v, ok := GetField(sub, part)
		if !ok {
			continue
		}
		if rest == "" {
			out = append(out, v)
		} else {
			out = append(out, Candidates(v, rest)...)
		}
	}
	return out
}

// LookupPath resolves a dotted path to a single value the way aggregation
// field references do: subdocument navigation plus array fan-out (a path
// through an array of documents produces an array of the collected
// values). The boolean is false if the path does not resolve.
func LookupPath(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}
	part, rest, _ := strings.Cut(path, ".")
	switch d := doc.(type) {
	case bson.D:
		v, ok := GetField(d, part)
		if !ok {
			return nil, false
		}
		return LookupPath(v, rest)
	case bson.A:
		if idx, err := strconv.Atoi(part); err == nil {
			if idx < 0 || idx >= len(d) {
				return nil, false
			}
			return LookupPath(d[idx], rest)
		}
		collected := bson.A{}
		for _, item := range d {
			if sub, ok := item.(bson.D); ok {
				if v, ok := LookupPath(sub, path); ok {
					collected = append(collected, v)
				}
			}
		}
		if len(collected) == 0 {
			return nil, false
		}
		return collected, true
	default:
		return nil, false
	}
}

// --------------------------------------------------------------------------
// Path Mutation (update semantics)
// --------------------------------------------------------------------------

// SetPath sets the value at a dotted path, creating intermediate
// subdocuments as needed. Numeric parts address array elements; setting
// one past the end appends, setting further past the end pads with nulls
// (server behavior for positional $set).
func SetPath(doc bson.D, path string, value any) bson.D {
	part, rest, _ := strings.Cut(path, ".")
	if rest == "" {
		return SetField(doc, part, value)
	}
	sub, ok := GetField(doc, part)
	if !ok {
		sub = bson.D{}
	}
	return SetField(doc, part, setPathAny(sub, rest, value))
}

func setPathAny(container any, path string, value any) any {
	part, rest, _ := strings.Cut(path, ".")
	switch c := container.(type) {
	case bson.D:
		if rest == "" {
			return SetField(c, part, value)
		}
		sub, ok := GetField(c, part)
		if !ok {
			sub = bson.D{}
		}
		return SetField(c, part, setPathAny(sub, rest, value))
	case bson.A:
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return c
		}
		for idx >= len(c) {
			c = append(c, nil)
		}
		if rest == "" {
			c[idx] = value
		} else {
			sub := c[idx]
			if sub == nil {
				sub = bson.D{}
			}
			c[idx] = setPathAny(sub, rest, value)
		}
		return c
	default:
		// Overwrite a scalar on the way to a deeper path.
		d := bson.D{}
		if rest == "" {
			return SetField(d, part, value)
		}
		return SetField(d, part, setPathAny(bson.D{}, rest, value))
	}
}

// UnsetPath removes the value at a dotted path. Unsetting an array element
// leaves a null hole, as the server does.
func UnsetPath(doc bson.D, path string) bson.D {
	part, rest, _ := strings.Cut(path, ".")
	if rest == "" {
		return RemoveField(doc, part)
	}
	sub, ok := GetField(doc, part)
	if !ok {
		return doc
	}
	return SetField(doc, part, unsetPathAny(sub, rest))
}

func unsetPathAny(container any, path string) any {
	part, rest, _ := strings.Cut(path, ".")
	switch c := container.(type) {
	case bson.D:
		if rest == "" {
			return RemoveField(c, part)
		}
		sub, ok := GetField(c, part)
		if !ok {
			return c
		}
		return SetField(c, part, unsetPathAny(sub, rest))
	case bson.A:
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 || idx >= len(c) {
			return c
		}
		if rest == "" {
			c[idx] = nil
		} else {
			c[idx] = unsetPathAny(c[idx], rest)
		}
		return c
	default:
		return c
	}
}
