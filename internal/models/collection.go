package models

// Collection is a task list a task is stored in
type Collection struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color,omitempty"`
}
