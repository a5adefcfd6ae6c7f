// Package naming hands out identifiers for temporaries the code generator
// synthesizes, without clashing with source names or earlier allocations.
package naming

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"martianoff/cshape/internal/frontend"
)

// Scope is the part of the front-end the allocator needs.
type Scope interface {
	Node(id frontend.NodeID) *frontend.Node
	VisibleNames(id frontend.NodeID) []string
}

var _ Scope = (*frontend.Program)(nil)

var loopCounters = []string{"i", "j", "k", "l", "m", "n"}

// Allocator tracks names handed out per function. Names allocated in the
// global scope are keyed by frontend.NoNode.
type Allocator struct {
	prog Scope
	used map[frontend.NodeID]*set.Set[string]
}

func New(prog Scope) *Allocator {
	return &Allocator{
		prog: prog,
		used: make(map[frontend.NodeID]*set.Set[string]),
	}
}

// LoopCounter returns a counter name free at node at: the first of i, j, k,
// l, m, n, then i_2, i_3 and so on.
func (a *Allocator) LoopCounter(at frontend.NodeID) string {
	free := a.free(at)
	for _, name := range loopCounters {
		if free(name) {
			return a.claim(at, name)
		}
	}
	return a.claim(at, suffixed("i", free))
}

// Temporary returns proposed when it is free at node at, else proposed_2,
// proposed_3 and so on.
func (a *Allocator) Temporary(at frontend.NodeID, proposed string) string {
	free := a.free(at)
	if free(proposed) {
		return a.claim(at, proposed)
	}
	return a.claim(at, suffixed(proposed, free))
}

func suffixed(base string, free func(string) bool) string {
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if free(name) {
			return name
		}
	}
}

func (a *Allocator) free(at frontend.NodeID) func(string) bool {
	visible := set.From(a.prog.VisibleNames(at))
	used := a.used[a.scopeOf(at)]
	return func(name string) bool {
		return !visible.Contains(name) && (used == nil || !used.Contains(name))
	}
}

func (a *Allocator) claim(at frontend.NodeID, name string) string {
	key := a.scopeOf(at)
	used, ok := a.used[key]
	if !ok {
		used = set.New[string](4)
		a.used[key] = used
	}
	used.Insert(name)
	return name
}

func (a *Allocator) scopeOf(at frontend.NodeID) frontend.NodeID {
	n := a.prog.Node(at)
	if n == nil {
		return frontend.NoNode
	}
	if n.Kind == frontend.KindFunction {
		return n.ID
	}
	return n.Func
}
