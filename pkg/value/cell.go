package value

import "errors"

// Shared-cell access errors. These surface as VM errors (see pkg/vm),
// never as panics — a borrow violation is an ordinary runtime failure,
// not undefined behavior.
var (
	ErrNotAccessibleRef = errors.New("not accessible: ref")
	ErrNotAccessibleMut = errors.New("not accessible: mut")
)

// borrowState encodes the outstanding borrows on a Cell:
//   0        -> free
//   n > 0    -> n outstanding immutable (Ref) borrows
//   -1       -> one outstanding exclusive (Mut) borrow
type borrowState int

const mutBorrow borrowState = -1

// Cell is the shared heap container behind every non-scalar Value. It is
// reference-counted within a single Task; the VM never shares a Cell
// across tasks, so no synchronization is needed.
type Cell struct {
	strong  int
	borrows borrowState
	data    interface{}
}

func newCell(data interface{}) *Cell {
	return &Cell{strong: 1, data: data}
}

// Clone increments the cell's strong count and returns a new Value handle
// pointing at the same cell. The VM's Dup and LoadLocal do not call it:
// they copy the handle without touching the count.
func (v Value) Clone() Value {
	if v.cell != nil {
		v.cell.strong++
	}
	return v
}

// Drop releases one strong reference. Cells have no finalizer; once
// strong reaches zero the data becomes unreachable and is left for the Go
// garbage collector.
func (v Value) Drop() {
	if v.cell != nil {
		v.cell.strong--
	}
}

// Ref acquires an immutable borrow. Fails with ErrNotAccessibleRef if a
// mutable borrow is outstanding.
func (c *Cell) Ref() (*RefGuard, error) {
	if c.borrows == mutBorrow {
		return nil, ErrNotAccessibleRef
	}
	c.borrows++
	return &RefGuard{cell: c}, nil
}

// Mut acquires an exclusive mutable borrow. Fails with ErrNotAccessibleMut
// if any borrow (mutable or immutable) is outstanding.
func (c *Cell) Mut() (*MutGuard, error) {
	if c.borrows != 0 {
		return nil, ErrNotAccessibleMut
	}
	c.borrows = mutBorrow
	return &MutGuard{cell: c}, nil
}

// TakeOwnership moves the cell's payload out, succeeding only when there
// is exactly one strong reference and no outstanding borrows. Used by
// operations that consume a container outright (e.g. converting a Vec
// into its backing slice without copying).
func (c *Cell) TakeOwnership() (interface{}, error) {
	if c.strong != 1 || c.borrows != 0 {
		return nil, ErrNotAccessibleMut
	}
	data := c.data
	c.data = nil
	return data, nil
}

// RefGuard represents one outstanding immutable borrow. Release must be
// called exactly once; it is safe (and expected) to do so via defer on
// every exit path, including error returns.
type RefGuard struct {
	cell     *Cell
	released bool
}

func (g *RefGuard) Data() interface{} { return g.cell.data }

func (g *RefGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.cell.borrows--
}

// MutGuard represents the single outstanding mutable borrow.
type MutGuard struct {
	cell     *Cell
	released bool
}

func (g *MutGuard) Data() interface{} { return g.cell.data }

func (g *MutGuard) Set(data interface{}) { g.cell.data = data }

func (g *MutGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.cell.borrows = 0
}

// RefCount reports the current strong reference count, primarily for
// tests asserting that borrows and ownership return to a clean state at
// task completion.
func (c *Cell) RefCount() int { return c.strong }

// Outstanding reports whether any borrow (Ref or Mut) is currently held.
func (c *Cell) Outstanding() bool { return c.borrows != 0 }
