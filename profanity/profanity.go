// Package profanity provides the message-content predicate consulted by the
// session gateway before a chat message is broadcast.
package profanity

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// Filter reports whether a piece of text should be blocked. The gateway
// treats the implementation as a black box.
type Filter interface {
	IsProfane(text string) bool
}

// Detector is a Filter backed by go-away's profanity detection. Matching
// normalizes case, leet-speak substitutions and spacing tricks, so "SH1T"
// is caught alongside "shit".
type Detector struct {
	detector *goaway.ProfanityDetector
}

// NewDetector creates a Detector with go-away's built-in dictionary plus any
// extra blocked words supplied.
func NewDetector(extra ...string) *Detector {
	words := make([]string, 0, len(extra))
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return &Detector{detector: goaway.NewProfanityDetector()}
	}
	profanities := append(append([]string{}, goaway.DefaultProfanities...), words...)
	return &Detector{detector: goaway.NewProfanityDetector().WithCustomDictionary(
		profanities,
		goaway.DefaultFalsePositives,
		goaway.DefaultFalseNegatives,
	)}
}

// IsProfane reports whether text contains a blocked word.
func (d *Detector) IsProfane(text string) bool {
	return d.detector.IsProfane(text)
}
