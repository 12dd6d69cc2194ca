// Package tally counts string occurrences and ranks them.
package tally

import "sort"

// Entry is one counted key.
type Entry struct {
	Key   string
	Count int
}

// Counter counts keys, remembering first-seen order for tie breaks.
type Counter struct {
	counts map[string]int
	order  []string
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add increments key by one.
func (c *Counter) Add(key string) {
	c.AddN(key, 1)
}

// AddN increments key by n.
func (c *Counter) AddN(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// AddAll increments every key in keys.
func (c *Counter) AddAll(keys []string) {
	for _, k := range keys {
		c.Add(k)
	}
}

// Get returns the count for key.
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.order)
}

// MostCommon returns up to n entries by descending count. Ties keep
// first-seen order. n <= 0 returns all entries.
func (c *Counter) MostCommon(n int) []Entry {
	out := make([]Entry, len(c.order))
	for i, k := range c.order {
		out[i] = Entry{Key: k, Count: c.counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Keys returns the keys of the n most common entries.
func (c *Counter) Keys(n int) []string {
	entries := c.MostCommon(n)
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}
