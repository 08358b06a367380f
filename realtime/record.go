package realtime

import (
	"strings"
)

// Record is one normalized entry held in the local collection.
// Identity is unique within the collection. ParentScope is the identity
// of the owning session. Fields hold the flat scalar representation
// the render layer reads.
type Record struct {
	Identity    string
	ParentScope string
	Fields      map[string]any
}

// NormalizeFunc converts one wire payload into a canonical record.
// A nil result drops the payload. No identity also drops the payload.
type NormalizeFunc func(payload map[string]any) *Record

// NormalizeEntry is the stock entry normalizer.
// Mirrors the server representation: `type` is lower cased,
// `entry_date` falls back to the date part of `created_at`,
// and the nested `user` object collapses to `user_name`.
func NormalizeEntry(payload map[string]any) *Record {
	identity, ok := payload["id"].(string)
	if !ok || identity == "" {
		return nil
	}

	fields := map[string]any{}
	for k, v := range payload {
		switch k {
		case "id", "session_id":
			// carried on the record itself
		case "type":
			if entryType, ok := v.(string); ok {
				fields[k] = strings.ToLower(entryType)
			}
		case "user":
			if user, ok := v.(map[string]any); ok {
				if username, ok := user["username"].(string); ok {
					fields["user_name"] = username
				}
			}
		default:
			switch v.(type) {
			case string, float64, int, int64, bool, nil:
				fields[k] = v
			}
		}
	}

	if _, ok := fields["entry_date"]; !ok {
		if createdAt, ok := fields["created_at"].(string); ok && 10 <= len(createdAt) {
			fields["entry_date"] = createdAt[0:10]
		}
	}

	sessionId, _ := payload["session_id"].(string)

	return &Record{
		Identity:    identity,
		ParentScope: sessionId,
		Fields:      fields,
	}
}
