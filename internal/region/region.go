// Package region replaces the tagged region of a target file with a
// template's content.
//
// A region starts at the first start tag and ends at the first end tag
// after it. The whole span, tags included, is replaced by
//
//	start + "\n" + content + "\n" + end
//
// using the canonical tags, so a case-insensitive match is rewritten in
// canonical case. Only the first region of a target is replaced per call.
// The inserted content is never scanned for tags.
package region

import (
	"regexp"
	"strings"

	"github.com/conneroisu/mimic/internal/tags"
)

// Status is the outcome of a substitution.
type Status int

const (
	// StatusNotFound means the target holds neither tag of the pair.
	StatusNotFound Status = iota
	// StatusMalformed means a start tag without a following end tag, or an
	// end tag without any start tag.
	StatusMalformed
	// StatusUnchanged means the region already holds the template content.
	StatusUnchanged
	// StatusReplaced means the region was rewritten.
	StatusReplaced
)

// String returns the log form of the status.
func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "tags-not-found"
	case StatusMalformed:
		return "malformed"
	case StatusUnchanged:
		return "unchanged"
	case StatusReplaced:
		return "modified"
	default:
		return "unknown"
	}
}

// Result is the outcome of Substitute.
type Result struct {
	// Content is the full new target content. It equals the input when
	// Changed is false.
	Content string
	Changed bool
	// Found reports that a complete start/end region was located.
	Found  bool
	Status Status
	// Extra counts start tags left after the replaced region. They are not
	// touched.
	Extra int
}

// Engine performs region substitution.
type Engine struct {
	// CaseInsensitive enables case-insensitive tag detection.
	CaseInsensitive bool
}

// Substitute replaces the first tagged region of targetContent with
// templateContent.
func (e Engine) Substitute(templateContent, targetContent string, pair tags.Pair) Result {
	unchanged := Result{Content: targetContent, Status: StatusNotFound}

	start := e.matcher(pair.Start)
	end := e.matcher(pair.End)

	startAt, startLen := start.find(targetContent)
	if startAt < 0 {
		if at, _ := end.find(targetContent); at >= 0 {
			unchanged.Status = StatusMalformed
		}
		return unchanged
	}

	afterStart := startAt + startLen
	endRel, endLen := end.find(targetContent[afterStart:])
	if endRel < 0 {
		unchanged.Status = StatusMalformed
		return unchanged
	}
	regionEnd := afterStart + endRel + endLen

	var b strings.Builder
	b.Grow(startAt + len(pair.Start) + len(templateContent) + len(pair.End) + 2 + len(targetContent) - regionEnd)
	b.WriteString(targetContent[:startAt])
	b.WriteString(pair.Start)
	b.WriteString("\n")
	b.WriteString(templateContent)
	b.WriteString("\n")
	b.WriteString(pair.End)
	b.WriteString(targetContent[regionEnd:])

	result := Result{
		Content: b.String(),
		Found:   true,
		Extra:   start.count(targetContent[regionEnd:]),
	}
	result.Changed = result.Content != targetContent
	if result.Changed {
		result.Status = StatusReplaced
	} else {
		result.Status = StatusUnchanged
		result.Content = targetContent
	}
	return result
}

// Contains reports whether targetContent holds the start tag of pair.
func (e Engine) Contains(targetContent string, pair tags.Pair) bool {
	at, _ := e.matcher(pair.Start).find(targetContent)
	return at >= 0
}

// matcher locates one tag in text.
type matcher struct {
	tag     string
	pattern *regexp.Regexp
}

func (e Engine) matcher(tag string) matcher {
	m := matcher{tag: tag}
	if e.CaseInsensitive && tag != "" {
		// Case folding may change byte lengths, so positions come from the
		// regexp match on the original text.
		m.pattern = regexp.MustCompile("(?i)" + regexp.QuoteMeta(tag))
	}
	return m
}

// find returns the index and matched length of the first occurrence, or
// (-1, 0).
func (m matcher) find(s string) (int, int) {
	if m.tag == "" {
		return -1, 0
	}
	if m.pattern == nil {
		return strings.Index(s, m.tag), len(m.tag)
	}
	loc := m.pattern.FindStringIndex(s)
	if loc == nil {
		return -1, 0
	}
	return loc[0], loc[1] - loc[0]
}

func (m matcher) count(s string) int {
	if m.tag == "" {
		return 0
	}
	if m.pattern == nil {
		return strings.Count(s, m.tag)
	}
	return len(m.pattern.FindAllStringIndex(s, -1))
}
