package cds

import "sort"

// Request holds the archive specific query parameters of a
// retrieval: variables, date/time selectors, area, grid, format.
type Request map[string]interface{}

// Clone returns a shallow copy of req, so that
// selectors can be overridden without touching the original.
func (req Request) Clone() Request {
	res := make(Request, len(req))
	for k, v := range req {
		res[k] = v
	}
	return res
}

// Keys returns the request keys in lexical order.
func (req Request) Keys() []string {
	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
