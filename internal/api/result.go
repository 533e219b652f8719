package api

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/gravitrone/repack/cli/internal/records"
)

// Result is the JSON body every form endpoint answers with, on HTTP 200 and
// on HTTP 400 alike.
type Result struct {
	Success      bool                   `json:"success"`
	Fields       FieldErrors            `json:"fields,omitempty"`
	Message      *Message               `json:"message,omitempty"`
	Redirect     string                 `json:"redirect,omitempty"`
	Recordings   []records.StatusUpdate `json:"recordings,omitempty"`
	RecordingIDs IDList                 `json:"recording_ids,omitempty"`

	// RequestID is the X-Request-ID the result answered.
	RequestID string `json:"-"`
}

// Message is a server-chosen alert.
type Message struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

// FieldErrors maps a form field to its messages.
type FieldErrors map[string][]string

// UnmarshalJSON accepts each field's errors as a string, a list of strings
// or a list of Django error objects ({"message": ..., "code": ...}).
func (f *FieldErrors) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FieldErrors, len(raw))
	for field, value := range raw {
		out[field] = decodeMessages(value)
	}
	*f = out
	return nil
}

func decodeMessages(value json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(value, &one); err == nil {
		return nonEmpty([]string{one})
	}
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			out = append(out, obj.Message)
		}
	}
	return nonEmpty(out)
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// formLevelKeys name errors that belong to the whole form rather than a field.
var formLevelKeys = map[string]bool{
	"":                 true,
	"__all__":          true,
	"non_field_errors": true,
	"non-field-errors": true,
	"form":             true,
}

// IsFormLevel reports whether key carries form-wide errors.
func IsFormLevel(key string) bool {
	return formLevelKeys[strings.TrimSpace(key)]
}

// Split separates per-field errors from form-wide ones.
func (f FieldErrors) Split() (FieldErrors, []string) {
	fields := make(FieldErrors, len(f))
	var general []string
	for _, key := range f.Names() {
		if IsFormLevel(key) {
			general = append(general, f[key]...)
			continue
		}
		fields[key] = f[key]
	}
	return fields, general
}

// Names returns the field names in stable order.
func (f FieldErrors) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IDList decodes recording_ids given either as an array or as one
// comma-joined string.
type IDList []records.ID

func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		*l = records.IDs(strings.Split(joined, ",")...)
		return nil
	}
	var ids []records.ID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}
