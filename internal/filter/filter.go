package filter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MetadataPatterns are OS-generated metadata files that must never reach the
// archive, regardless of user configuration.
var MetadataPatterns = []string{
	"**/.DS_Store",
	"**/._*",
	"**/Thumbs.db",
	"**/desktop.ini",
	"**/.localized",
}

// Rule is a single exclude rule.
type Rule struct {
	Pattern string
	DirOnly bool
}

// Chain holds an ordered list of exclude rules. Matching is first-match-wins
// against slash-separated paths relative to the archive root.
type Chain struct {
	rules []Rule
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// NewMetadataChain creates a chain preloaded with MetadataPatterns.
func NewMetadataChain() *Chain {
	c := &Chain{}
	for _, p := range MetadataPatterns {
		// Built-in patterns are known-valid.
		_ = c.Add(p)
	}
	return c
}

// Add appends an exclude rule. A trailing slash restricts the rule to
// directories. Bare patterns (no slash) match at any depth.
func (c *Chain) Add(pattern string) error {
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")
	if pattern == "" {
		return fmt.Errorf("empty exclude pattern")
	}
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}
	pattern = strings.TrimPrefix(pattern, "/")
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid exclude pattern %q", pattern)
	}
	c.rules = append(c.rules, Rule{Pattern: pattern, DirOnly: dirOnly})
	return nil
}

// Len returns the number of rules in the chain.
func (c *Chain) Len() int {
	return len(c.rules)
}

// Excluded reports whether relPath should be kept out of the archive.
// relPath uses forward slashes and is relative to the archive root.
func (c *Chain) Excluded(relPath string, isDir bool) bool {
	relPath = strings.TrimPrefix(relPath, "/")
	for _, rule := range c.rules {
		if rule.DirOnly && !isDir {
			continue
		}
		ok, err := doublestar.Match(rule.Pattern, relPath)
		if err == nil && ok {
			return true
		}
	}
	return false
}
