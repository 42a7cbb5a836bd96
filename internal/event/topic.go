package event

import "strings"

// Topic is a dot-separated event name or subscription pattern.
type Topic string

// Wildcards usable in subscription patterns.
const (
	wildcardOne  = "*"
	wildcardRest = "**"
)

// Topics published by the engine.
const (
	TopicChangeInfo Topic = "changeinfo.batch"
	TopicUndo       Topic = "history.undo"
	TopicRedo       Topic = "history.redo"
	TopicReset      Topic = "history.reset"
	TopicConfig     Topic = "config.reloaded"
)

func (t Topic) segments() []string {
	return strings.Split(string(t), ".")
}

// Valid reports whether t is a well-formed concrete topic.
func (t Topic) Valid() bool {
	if t == "" {
		return false
	}
	for _, s := range t.segments() {
		if s == "" || s == wildcardOne || s == wildcardRest {
			return false
		}
	}
	return true
}

// ValidPattern reports whether t is a well-formed pattern. "**" may only
// appear as the last segment.
func (t Topic) ValidPattern() bool {
	if t == "" {
		return false
	}
	segs := t.segments()
	for i, s := range segs {
		if s == "" || (s == wildcardRest && i != len(segs)-1) {
			return false
		}
	}
	return true
}

// Matches reports whether the concrete topic matches pattern t.
func (t Topic) Matches(topic Topic) bool {
	pattern, name := t.segments(), topic.segments()
	for i, p := range pattern {
		if p == wildcardRest {
			return true
		}
		if i >= len(name) {
			return false
		}
		if p != wildcardOne && p != name[i] {
			return false
		}
	}
	return len(pattern) == len(name)
}
