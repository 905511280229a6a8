package beapi

const poolPageSize = 128

// Pool hands out *T from fixed-size pages. A page is an array allocated once
// and never resized or moved, so a pointer returned by Allocate keeps pointing
// at the same item while the pool grows. Graph nodes and their attributes are
// carved out of pools and refer to each other by pointer.
//
// Reset zeroes every item and rewinds the pool, keeping the pages for the next
// function. Pointers obtained before Reset must not be used afterwards.
type Pool[T any] struct {
	pages []*[poolPageSize]T
	// next is the slot of the last page handed out by the following Allocate.
	next int
	n    int
}

// NewPool returns an empty Pool.
func NewPool[T any]() Pool[T] {
	return Pool[T]{next: poolPageSize}
}

// Allocated returns the number of items handed out since the last Reset.
func (p *Pool[T]) Allocated() int {
	return p.n
}

// Allocate returns a zero T owned by the pool.
func (p *Pool[T]) Allocate() *T {
	if p.next == poolPageSize {
		p.grow()
	}
	item := &p.pages[len(p.pages)-1][p.next]
	p.next++
	p.n++
	return item
}

// grow opens a page, reusing one kept by Reset when available.
func (p *Pool[T]) grow() {
	i := len(p.pages)
	if i < cap(p.pages) {
		p.pages = p.pages[:i+1]
	} else {
		p.pages = append(p.pages, nil)
	}
	if p.pages[i] == nil {
		p.pages[i] = new([poolPageSize]T)
	}
	p.next = 0
}

// View returns the i-th item handed out since the last Reset.
func (p *Pool[T]) View(i int) *T {
	return &p.pages[i/poolPageSize][i%poolPageSize]
}

// Reset zeroes the items handed out and rewinds the pool.
func (p *Pool[T]) Reset() {
	var zero T
	for _, page := range p.pages {
		for i := range page {
			page[i] = zero
		}
	}
	p.pages = p.pages[:0]
	p.next = poolPageSize
	p.n = 0
}
