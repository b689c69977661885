// Package reddit turns Reddit post URLs into the direct media URLs behind them.
package reddit

import "sort"

// Object is a decoded JSON object.
type Object = map[string]any

// FindFirst walks a decoded JSON document depth-first and returns the first
// object for which match reports true. An object is tested before its children;
// array-valued fields are descended before object-valued ones, each group in
// sorted key order. Array elements are visited in order.
func FindFirst(doc any, match func(Object) bool) Object {
	switch node := doc.(type) {
	case Object:
		if match(node) {
			return node
		}

		for _, key := range sortedKeys(node, isArray) {
			if found := FindFirst(node[key], match); found != nil {
				return found
			}
		}

		for _, key := range sortedKeys(node, isObject) {
			if found := FindFirst(node[key], match); found != nil {
				return found
			}
		}
	case []any:
		for _, item := range node {
			if found := FindFirst(item, match); found != nil {
				return found
			}
		}
	}

	return nil
}

// findString returns the first string stored under key anywhere in doc.
func findString(doc any, key string) string {
	var out string

	FindFirst(doc, func(o Object) bool {
		if s, ok := o[key].(string); ok && s != "" {
			out = s

			return true
		}

		return false
	})

	return out
}

// isPostRecord matches the object describing the post itself.
func isPostRecord(o Object) bool {
	_, hasTitle := o["title"].(string)
	_, hasSub := o["subreddit"].(string)

	return hasTitle && hasSub
}

func sortedKeys(o Object, keep func(any) bool) []string {
	keys := make([]string, 0, len(o))

	for k, v := range o {
		if keep(v) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys
}

func isArray(v any) bool {
	_, ok := v.([]any)

	return ok
}

func isObject(v any) bool {
	_, ok := v.(Object)

	return ok
}

// path follows nested object fields and returns the value at the end.
func path(o Object, keys ...string) any {
	var cur any = o

	for _, k := range keys {
		m, ok := cur.(Object)
		if !ok {
			return nil
		}

		cur = m[k]
	}

	return cur
}

func stringAt(o Object, keys ...string) string {
	s, _ := path(o, keys...).(string)

	return s
}

func objectAt(o Object, keys ...string) Object {
	m, _ := path(o, keys...).(Object)

	return m
}
