package models

import "fmt"

type WorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url"`
}

// Field returns the string form of a field value, or "" when the field is absent.
func (w *WorkItem) Field(name string) string {
	if w == nil || w.Fields == nil {
		return ""
	}
	v, ok := w.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (w *WorkItem) State() string {
	return w.Field("System.State")
}

type AttachmentReference struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
