package wireenc

import "github.com/wireproto/wireenc/internal/dbg"

// context is transient per-encode state: the remaining recursion budget
// and the active options. It is allocated on the stack of the call to
// Encode and never escapes it; a Layout, by contrast, may be shared and
// read concurrently by any number of encodes.
type context struct {
	options Options
	depth   int
}

func newContext(opts Options) *context {
	return &context{options: opts, depth: opts.maxDepth()}
}

// enter decrements the depth budget on descent into a sub-message or
// group, aborting the encode if the budget is exhausted.
func (ctx *context) enter() {
	ctx.depth--
	dbg.Log("depth", "descend, remaining=%d", ctx.depth)
	if ctx.depth == 0 {
		panic(encodeAbort{ErrMaxDepth})
	}
}

// exit restores the depth budget on return from a sub-message or group.
func (ctx *context) exit() {
	ctx.depth++
	dbg.Log("depth", "ascend, remaining=%d", ctx.depth)
}
