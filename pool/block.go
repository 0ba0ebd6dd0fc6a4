package pool

import "fmt"

import "github.com/bnclabs/godevmem/api"

// block labels the half-open device memory range [ptr, ptr+size).
// Blocks own no memory. head marks the first block carved from a
// single upstream allocation, coalescing never crosses a head
// boundary. The zero block is the "no block" sentinel.
type block struct {
	ptr  api.Pointer
	size int64
	head bool
}

// byaddress ordering for free lists and ledgers.
func byaddress(a, b block) bool {
	return a.ptr < b.ptr
}

func (blk block) isvalid() bool {
	return blk.size > 0
}

// end one past the last byte of this block.
func (blk block) end() api.Pointer {
	return blk.ptr + api.Pointer(blk.size)
}

func (blk block) fits(size int64) bool {
	return blk.size >= size
}

// precedes whether blk immediately precedes next in the address space.
func (blk block) precedes(next block) bool {
	return blk.end() == next.ptr
}

// mergeable whether blk and next shall coalesce into one block, next
// shall not head an upstream allocation.
func (blk block) mergeable(next block) bool {
	return blk.precedes(next) && next.head == false
}

// merge blk with next, next shall be mergeable with blk.
func (blk block) merge(next block) block {
	return block{ptr: blk.ptr, size: blk.size + next.size, head: blk.head}
}

// split carve size bytes from the front of blk. Only the first piece
// keeps the head flag. rest is the zero block when blk is an exact fit.
func (blk block) split(size int64) (alloc, rest block) {
	alloc = block{ptr: blk.ptr, size: size, head: blk.head}
	if blk.size > size {
		rest = block{ptr: blk.ptr + api.Pointer(size), size: blk.size - size}
	}
	return alloc, rest
}

func (blk block) String() string {
	return fmt.Sprintf("block{%x,%v,%v}", uintptr(blk.ptr), blk.size, blk.head)
}
