// Package settings caches the per-scope configuration records served by the
// client. A scope is usually a document URI; clients without scoped
// configuration share one global record.
package settings

import "encoding/json"

// Settings is the record governing how the documents of a scope are
// processed. The zero value is the default for scopes the client never
// configured.
type Settings struct {
	// RequireConfig restricts processing to files governed by a local
	// configuration file in their working directory.
	RequireConfig bool `json:"requireConfig"`
}

// FromAny decodes one element of a configuration response. Clients answer
// with loosely typed JSON (an object, or null for "nothing configured");
// anything undecodable falls back to the defaults.
func FromAny(v any) Settings {
	var s Settings

	if v == nil {
		return s
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return s
	}

	// Best effort: unknown fields and nulls are fine, wrong shapes are not.
	_ = json.Unmarshal(raw, &s)

	return s
}
