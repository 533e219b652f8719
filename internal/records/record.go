package records

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ID identifies a recording. The service emits ids both as JSON strings
// (recording RIDs) and as bare numbers, so both decode into the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// IDs converts plain strings into ids, dropping blanks and repeats.
// First occurrence order is kept.
func IDs(values ...string) []ID {
	out := make([]ID, 0, len(values))
	seen := make(map[ID]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[ID(v)]; dup {
			continue
		}
		seen[ID(v)] = struct{}{}
		out = append(out, ID(v))
	}
	return out
}

// JoinIDs renders ids the way a browser serialises an array into one form
// field: comma separated, no spaces.
func JoinIDs(ids []ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

// Record is one recording row of a room.
type Record struct {
	ID        ID        `json:"record_id"`
	MeetingID string    `json:"meeting_id,omitempty"`
	Status    Status    `json:"status"`
	Created   Timestamp `json:"datetime_created"`
	Stopped   Timestamp `json:"datetime_stopped"`
	URL       string    `json:"url"`
}

// Duration is the length of the recording, zero when either bound is unknown.
func (r Record) Duration() time.Duration {
	if r.Created.IsZero() || r.Stopped.IsZero() {
		return 0
	}
	return r.Stopped.Sub(r.Created.Time)
}

// StatusUpdate is one `{record_id, status}` pair of a process response.
type StatusUpdate struct {
	RecordID ID     `json:"record_id"`
	Status   Status `json:"status"`
}

// Room groups recordings by meeting type.
type Room struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Timestamp accepts the service's `str(datetime)` output as well as RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Numbers and nulls carry no usable date.
		t.Time = time.Time{}
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
