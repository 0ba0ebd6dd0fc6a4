package pool

import "github.com/tidwall/btree"

// freelist address ordered set of free blocks belonging to one stream.
// Blocks never overlap and adjacent blocks from the same upstream
// allocation are coalesced on insert. The pool mutex serializes
// access, the btree runs lock-free.
type freelist struct {
	tree *btree.BTreeG[block]
}

func newfreelist() *freelist {
	opts := btree.Options{NoLocks: true}
	return &freelist{tree: btree.NewBTreeGOptions[block](byaddress, opts)}
}

// insert blk into the list, coalescing with the previous and the next
// neighbour when they abut.
func (fl *freelist) insert(blk block) {
	if blk.isvalid() == false {
		return
	}
	var prev, next block
	fl.tree.Descend(blk, func(b block) bool {
		prev = b
		return false
	})
	fl.tree.Ascend(blk, func(b block) bool {
		next = b
		return false
	})
	if prev.isvalid() && prev.mergeable(blk) {
		fl.tree.Delete(prev)
		blk = prev.merge(blk)
	}
	if next.isvalid() && blk.mergeable(next) {
		fl.tree.Delete(next)
		blk = blk.merge(next)
	}
	fl.tree.Set(blk)
}

// merge consume every block from other, coalescing as they land.
func (fl *freelist) merge(other *freelist) {
	for {
		blk, ok := other.tree.PopMin()
		if ok == false {
			return
		}
		fl.insert(blk)
	}
}

// firstfit remove and return the first block, in address order, of at
// least size bytes. The historical name for this strategy is best-fit,
// the search has always been first-fit.
func (fl *freelist) firstfit(size int64) (block, bool) {
	var found block
	fl.tree.Scan(func(blk block) bool {
		if blk.fits(size) {
			found = blk
			return false
		}
		return true
	})
	if found.isvalid() == false {
		return block{}, false
	}
	fl.tree.Delete(found)
	return found, true
}

// canfit whether the list holds a block of at least size bytes.
func (fl *freelist) canfit(size int64) bool {
	fits := false
	fl.tree.Scan(func(blk block) bool {
		fits = blk.fits(size)
		return fits == false
	})
	return fits
}

// summary return the largest free block and the total free bytes.
func (fl *freelist) summary() (largest, total int64) {
	fl.tree.Scan(func(blk block) bool {
		total += blk.size
		if blk.size > largest {
			largest = blk.size
		}
		return true
	})
	return largest, total
}

func (fl *freelist) len() int {
	return fl.tree.Len()
}

// audit walk the list confirming that blocks are sorted without
// overlap and that no coalescible pair survived insert.
func (fl *freelist) audit() {
	var prev block
	fl.tree.Scan(func(blk block) bool {
		if blk.isvalid() == false {
			panicerr("freelist: zero sized %v", blk)
		}
		if prev.isvalid() {
			if prev.end() > blk.ptr {
				panicerr("freelist: %v overlaps %v", prev, blk)
			} else if prev.mergeable(blk) {
				panicerr("freelist: %v not coalesced with %v", prev, blk)
			}
		}
		prev = blk
		return true
	})
}
