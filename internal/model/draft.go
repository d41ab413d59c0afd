package model

import "strings"

// Draft is the unpersisted buffer of a post that has no id yet. One slot exists per user.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Ready reports whether both fields carry text after trimming.
func (d Draft) Ready() bool {
	return strings.TrimSpace(d.Title) != "" && strings.TrimSpace(d.Content) != ""
}

func (d Draft) Empty() bool {
	return d.Title == "" && d.Content == ""
}
