package records

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Status is the processing state code of a recording.
type Status int

const (
	StatusUnknown      Status = 0
	StatusNotProcessed Status = 1
	StatusWaiting      Status = 2
	StatusProcessing   Status = 3
	StatusCompleted    Status = 4
	StatusUploaded     Status = 5
	StatusFailed       Status = 6
)

var statusLabels = map[Status]string{
	StatusNotProcessed: "Not processed",
	StatusWaiting:      "Waiting",
	StatusProcessing:   "Processing",
	StatusCompleted:    "Completed",
	StatusUploaded:     "Uploaded",
	StatusFailed:       "Failed",
}

// Label returns the human readable status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown (" + strconv.Itoa(int(s)) + ")"
}

func (s Status) String() string { return s.Label() }

// Processable reports whether a process request makes sense for the record.
func (s Status) Processable() bool {
	return s == StatusNotProcessed || s == StatusFailed
}

// UnmarshalJSON accepts 2 and "2".
func (s *Status) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Status(n)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*s = StatusUnknown
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*s = Status(n)
	return nil
}

// ParseStatus maps a code or a label (case-insensitive) to a Status.
func ParseStatus(value string) (Status, bool) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		s := Status(n)
		_, ok := statusLabels[s]
		return s, ok
	}
	for s, label := range statusLabels {
		if strings.EqualFold(label, value) {
			return s, true
		}
	}
	return StatusUnknown, false
}
