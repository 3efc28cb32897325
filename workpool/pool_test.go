// SPDX-License-Identifier: MIT

package workpool

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

// TestPool_ResultOrdering is spec.md §8's work-pool-ordering property: for
// any interleaving of worker completions, GetResult yields sequence indices
// 0,1,2,... without gaps or reorderings, regardless of how long each job
// takes to finish.
func TestPool_ResultOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 200

	p := New(8)
	for i := 0; i < n; i++ {
		delay := time.Duration(rng.Intn(2000)) * time.Microsecond
		p.Dispatch(func(seq int) (any, error) {
			time.Sleep(delay)
			return seq, nil
		})
	}
	p.Finish()

	for want := 0; want < n; want++ {
		val, ok, err := p.GetResult()
		if err != nil {
			t.Fatalf("GetResult: %v", err)
		}
		if !ok {
			t.Fatalf("GetResult: pool drained early at index %d", want)
		}
		got := val.(int)
		if got != want {
			t.Fatalf("GetResult returned seq %d out of order, want %d", got, want)
		}
	}

	if _, ok, err := p.GetResult(); ok || err != nil {
		t.Fatalf("GetResult after drain: got ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

func TestPool_PropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")

	p := New(4)
	for i := 0; i < 20; i++ {
		i := i
		p.Dispatch(func(seq int) (any, error) {
			if i == 5 {
				return nil, boom
			}
			return seq, nil
		})
	}
	p.Finish()

	sawErr := false
	for {
		_, ok, err := p.GetResult()
		if err != nil {
			if !errors.Is(err, boom) {
				t.Fatalf("GetResult: got error %v, want %v", err, boom)
			}
			sawErr = true
			break
		}
		if !ok {
			break
		}
	}
	if !sawErr {
		t.Fatalf("expected the pool to surface the dispatched error")
	}
}

func TestPool_StateTransitions(t *testing.T) {
	p := New(2)
	if p.State() != Dispatching {
		t.Fatalf("new pool: got state %v, want Dispatching", p.State())
	}
	p.Dispatch(func(seq int) (any, error) { return seq, nil })
	p.Finish()
	for {
		_, ok, err := p.GetResult()
		if err != nil {
			t.Fatalf("GetResult: %v", err)
		}
		if !ok {
			break
		}
	}
	if p.State() != Finished {
		t.Fatalf("drained pool: got state %v, want Finished", p.State())
	}
}
