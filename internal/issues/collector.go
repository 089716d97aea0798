package issues

import "sync"

// Collector keeps accepted issues in memory, grouped by file in arrival order.
type Collector struct {
	mu     sync.Mutex
	byFile map[string][]*Issue
	files  []string
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{byFile: make(map[string][]*Issue)}
}

// Accept records a batch of issues for filePath.
func (c *Collector) Accept(filePath string, issues []*Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byFile[filePath]; !ok {
		c.files = append(c.files, filePath)
	}
	c.byFile[filePath] = append(c.byFile[filePath], issues...)
}

// Issues returns every collected issue.
func (c *Collector) Issues() []*Issue {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := []*Issue{}
	for _, f := range c.files {
		all = append(all, c.byFile[f]...)
	}
	return all
}

// IssuesFor returns the issues collected for filePath.
func (c *Collector) IssuesFor(filePath string) []*Issue {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*Issue(nil), c.byFile[filePath]...)
}

// Len returns the number of collected issues.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, issues := range c.byFile {
		n += len(issues)
	}
	return n
}
