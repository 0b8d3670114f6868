// Copyright 2026 The seg Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package loser merges sorted sources with a tournament ("loser") tree,
// after Bryan Boreham's go-loser. Sources are pulled lazily, one element
// at a time, so exhaustion is tracked per leaf rather than with a
// sentinel maximum value.
package loser

// A loser tree is a binary tree laid out such that nodes N and N+1 have parent N/2.
// We store M leaf nodes in positions M...2M-1, and M-1 internal nodes in positions 1..M-1.
// Node 0 is a special node, containing the winner of the contest.
type Tree[E any] struct {
	nodes   []node[E]
	less    func(E, E) bool
	started bool
}

type node[E any] struct {
	index int              // This is the loser for all nodes except the 0th, where it is the winner.
	value E                // Value copied from the loser node, or winner for node 0.
	done  bool             // value is past the end of its source.
	next  func() (E, bool) // Only populated for leaf nodes.
}

// New returns a tree merging sources, each of which must yield elements
// in ascending order according to less. Elements less considers equal
// come out in an unspecified order.
func New[E any](sources []func() (E, bool), less func(E, E) bool) *Tree[E] {
	t := &Tree[E]{
		nodes: make([]node[E], len(sources)*2),
		less:  less,
	}
	for i, next := range sources {
		t.nodes[i+len(sources)].next = next
	}
	return t
}

// Next returns the smallest element not yet returned, and false once
// every source is exhausted.
func (t *Tree[E]) Next() (E, bool) {
	var zero E
	if len(t.nodes) == 0 {
		return zero, false
	}
	if !t.started {
		t.started = true
		// Call next() on each leaf to get the first value.
		for i := len(t.nodes) / 2; i < len(t.nodes); i++ {
			t.moveNext(i)
		}
		t.initialize()
	} else {
		t.moveNext(t.nodes[0].index)
		t.replayGames(t.nodes[0].index)
	}
	if t.nodes[0].done {
		return zero, false
	}
	return t.nodes[0].value, true
}

func (t *Tree[E]) moveNext(index int) {
	n := &t.nodes[index]
	if n.done {
		return
	}
	if v, ok := n.next(); ok {
		n.value = v
		return
	}
	var zero E
	n.value = zero
	n.done = true
}

// beats reports whether a should be merged before b. Exhausted
// leaves lose to everything.
func (t *Tree[E]) beats(a E, aDone bool, b E, bDone bool) bool {
	if aDone {
		return false
	}
	if bDone {
		return true
	}
	return t.less(a, b)
}

func (t *Tree[E]) initialize() {
	winner := t.playGame(1)
	t.nodes[0].index = winner
	t.nodes[0].value = t.nodes[winner].value
	t.nodes[0].done = t.nodes[winner].done
}

// Find the winner at position pos; if it is a non-leaf node, store the loser.
// pos must be >= 1 and < len(t.nodes).
func (t *Tree[E]) playGame(pos int) int {
	nodes := t.nodes
	if pos >= len(nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	var loser, winner int
	if t.beats(nodes[left].value, nodes[left].done, nodes[right].value, nodes[right].done) {
		loser, winner = right, left
	} else {
		loser, winner = left, right
	}
	nodes[pos].index = loser
	nodes[pos].value = nodes[loser].value
	nodes[pos].done = nodes[loser].done
	return winner
}

// Starting at pos, which is a winner, re-consider all values up to the root.
func (t *Tree[E]) replayGames(pos int) {
	nodes := t.nodes
	winningValue, winningDone := nodes[pos].value, nodes[pos].done
	for n := parent(pos); n != 0; n = parent(n) {
		node := &nodes[n]
		if t.beats(node.value, node.done, winningValue, winningDone) {
			// Record pos as the loser here, and the old loser is the new winner.
			node.index, pos = pos, node.index
			node.value, winningValue = winningValue, node.value
			node.done, winningDone = winningDone, node.done
		}
	}
	// pos is now the winner; store it in node 0.
	nodes[0].index = pos
	nodes[0].value = winningValue
	nodes[0].done = winningDone
}

func parent(i int) int { return i >> 1 }
