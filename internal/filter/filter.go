// Package filter provides include/exclude rules for folder transfers.
// Rules match entry names (glob syntax) in order, first match wins; size
// bounds apply to regular files only.
package filter

import (
	"fmt"
	"path"
)

// Rule is a single include or exclude rule.
type Rule struct {
	Pattern string
	Include bool
	DirOnly bool // pattern ended with /
}

// Chain holds an ordered list of rules plus size bounds.
type Chain struct {
	rules   []Rule
	minSize int64
	maxSize int64
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule for the given name glob.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude appends an include rule for the given name glob.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	r := Rule{Pattern: pattern, Include: include}
	if n := len(pattern); n > 1 && pattern[n-1] == '/' {
		r.DirOnly = true
		r.Pattern = pattern[:n-1]
	}
	if _, err := path.Match(r.Pattern, ""); err != nil {
		return fmt.Errorf("bad filter pattern %q: %w", pattern, err)
	}
	c.rules = append(c.rules, r)
	return nil
}

// SetMinSize sets the minimum file size bound.
func (c *Chain) SetMinSize(n int64) { c.minSize = n }

// SetMaxSize sets the maximum file size bound.
func (c *Chain) SetMaxSize(n int64) { c.maxSize = n }

// Empty reports whether the chain has no rules and no size bounds.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// Match reports whether the entry should be included. name is the entry's
// base name, isDir marks directories, size is ignored for directories.
func (c *Chain) Match(name string, isDir bool, size int64) bool {
	if !isDir {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}

	for _, rule := range c.rules {
		if rule.DirOnly && !isDir {
			continue
		}
		if ok, _ := path.Match(rule.Pattern, name); ok {
			return rule.Include
		}
	}

	// No rule matched: include.
	return true
}
