// SPDX-License-Identifier: MIT

package lzma

import "testing"

// TestStateMachineClosure exercises spec.md §8's state-machine closure
// property: starting from state 0 and applying any sequence of update_*
// operations keeps state in [0,11], and is_literal(state) iff state < 7.
func TestStateMachineClosure(t *testing.T) {
	ops := []func(*coderState){
		(*coderState).updateLiteral,
		(*coderState).updateMatch,
		(*coderState).updateLongRep,
		(*coderState).updateShortRep,
	}

	var st coderState
	st.reset()
	if st.s != 0 {
		t.Fatalf("reset: got state %d, want 0", st.s)
	}

	// Walk every sequence of ops up to length 5 from state 0, checking the
	// invariant after every step.
	var walk func(depth int)
	walk = func(depth int) {
		if depth == 0 {
			return
		}
		for _, op := range ops {
			saved := st
			op(&st)
			if st.s > 11 {
				t.Fatalf("state escaped [0,11]: got %d", st.s)
			}
			wantLiteral := st.s < 7
			if st.isLiteral() != wantLiteral {
				t.Fatalf("isLiteral() = %v for state %d, want %v", st.isLiteral(), st.s, wantLiteral)
			}
			walk(depth - 1)
			st = saved
		}
	}
	walk(5)
}
