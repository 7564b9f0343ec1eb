// ABOUTME: Privacy filter deciding whether a signal may sync at all
// ABOUTME: Checks frontmatter flags, private path segments, and internal-meeting titles
package sync

import (
	"fmt"
	"strings"

	"github.com/blsync/blsync/models"
)

// SkipDecision is the privacy filter's verdict. A skip blocks every
// downstream write for the signal.
type SkipDecision struct {
	Skip   bool   `json:"skip"`
	Reason string `json:"reason,omitempty"`
}

const privateSegment = "_private"

// internalMeetingKeywords mark meetings that are internal by title alone.
var internalMeetingKeywords = []string{
	"1:1", "1-1", "one on one", "standup", "stand-up", "all-hands",
	"all hands", "retro", "retrospective", "sprint planning", "interview",
	"town hall", "office hours", "team meeting", "weekly sync", "daily sync",
}

// ShouldSkipNote evaluates privacy rules in order; the first hit wins.
// A sync:false frontmatter flag short-circuits every other check.
func ShouldSkipNote(sig models.Signal, path string) SkipDecision {
	fm := sig.Frontmatter()

	if flagFalse(fm, "sync") {
		return SkipDecision{Skip: true, Reason: "sync disabled in frontmatter"}
	}
	if flagTrue(fm, "private") {
		return SkipDecision{Skip: true, Reason: "marked private in frontmatter"}
	}

	for _, segment := range strings.Split(path, "/") {
		if strings.EqualFold(strings.TrimSpace(segment), privateSegment) {
			return SkipDecision{Skip: true, Reason: "private folder"}
		}
	}

	title := strings.ToLower(sig.Title())
	for _, keyword := range internalMeetingKeywords {
		if strings.Contains(title, keyword) {
			return SkipDecision{Skip: true, Reason: fmt.Sprintf("internal meeting (%s)", keyword)}
		}
	}

	return SkipDecision{}
}

// flagFalse reports whether a frontmatter flag is explicitly false.
// Frontmatter values arrive as bool or string depending on the source.
func flagFalse(fm map[string]any, key string) bool {
	v, ok := fm[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "false")
	}
	return false
}

// flagTrue reports whether a frontmatter flag is explicitly true.
func flagTrue(fm map[string]any, key string) bool {
	v, ok := fm[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	}
	return false
}
