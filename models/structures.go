package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the body of GET /status.
type Status struct {
	Recording bool       `json:"recording"`
	StartTime *Timestamp `json:"start_time,omitempty"`
}

// CommandResult is the body of GET /start and GET /stop.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VideoList is the body of GET /list.
type VideoList struct {
	Videos []string `json:"videos"`
}

// ArchiveStatus reports the uploader's progress.
type ArchiveStatus struct {
	Uploading bool   `json:"isUploading"`
	Filename  string `json:"filename,omitempty"`
}

// Timestamp accepts ISO-8601 values with or without a zone offset. Values
// without one are taken as local time, which is what the recorder emits.
type Timestamp struct {
	time.Time
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}

	for _, layout := range zonelessLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
