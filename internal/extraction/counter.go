package extraction

// Counters provides stable auto-numbering scoped to a parent code. The
// counter is threaded through explicitly so numbering never depends on
// call order across unrelated parents.
type Counters struct {
	next map[string]int
}

func NewCounters() *Counters {
	return &Counters{next: map[string]int{}}
}

// Next returns the next 1-based suffix for children of parent.
func (c *Counters) Next(parent string) int {
	c.next[parent]++
	return c.next[parent]
}
