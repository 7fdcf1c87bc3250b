package appwrite

import (
	"encoding/json"
	"net/url"
)

// Query is a single list filter in Appwrite's JSON query syntax
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// Equal matches documents whose attribute equals one of the values
func Equal(attribute string, values ...any) Query {
	return Query{Method: "equal", Attribute: attribute, Values: values}
}

// OrderDesc sorts by attribute, highest first
func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

// Limit caps the number of returned documents
func Limit(n int) Query {
	return Query{Method: "limit", Values: []any{n}}
}

// Offset skips the first n documents
func Offset(n int) Query {
	return Query{Method: "offset", Values: []any{n}}
}

// String returns the JSON encoding sent on the wire
func (q Query) String() string {
	b, err := json.Marshal(q)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseQuery decodes a JSON query string
func ParseQuery(s string) (Query, error) {
	var q Query
	err := json.Unmarshal([]byte(s), &q)
	return q, err
}

// encodeQueries renders queries as repeated queries[] parameters
func encodeQueries(queries []Query) url.Values {
	values := url.Values{}
	for _, q := range queries {
		values.Add("queries[]", q.String())
	}
	return values
}
