package cache

import (
	"errors"
	"fmt"
	"sync"
)

var ErrComputePanicked = errors.New("computation panicked")

// OnlyOne ensures only one concurrent evaluation of a keyed expression.
type OnlyOne interface {
	// Compute returns the value of calling fn(), but only calls fn once concurrently for
	// each k.
	Compute(k interface{}, fn func() (interface{}, error)) (interface{}, error)
}

type empty struct{}

type ChanOnlyOne struct {
	m *sync.Map
}

func NewChanOnlyOne() *ChanOnlyOne {
	return &ChanOnlyOne{
		m: &sync.Map{},
	}
}

type chanAndResult struct {
	ch    chan empty
	value interface{}
	err   error
}

func (c *ChanOnlyOne) Compute(k interface{}, fn func() (interface{}, error)) (interface{}, error) {
	stop := chanAndResult{ch: make(chan empty)}
	actual, inFlight := c.m.LoadOrStore(k, &stop)
	actualStop := actual.(*chanAndResult)
	if inFlight {
		<-actualStop.ch
	} else {
		c.run(k, actualStop, fn)
	}
	return actualStop.value, actualStop.err
}

// run releases waiters even when fn panics; they see ErrComputePanicked and the
// panic continues in the computing goroutine.
func (c *ChanOnlyOne) run(k interface{}, res *chanAndResult, fn func() (interface{}, error)) {
	done := false
	defer func() {
		if !done {
			res.value = nil
			res.err = fmt.Errorf("%w: %v", ErrComputePanicked, k)
		}
		close(res.ch)
		c.m.Delete(k)
	}()
	res.value, res.err = fn()
	done = true
}
