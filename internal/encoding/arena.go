package encoding

// chunkSize is the allocation unit of the token arena
const chunkSize = 1 << 20

// tokenRef locates one token inside the arena
type tokenRef struct {
	chunk  uint32
	offset uint32
	length uint32
}

// arena stores token bytes back to back in large chunks, indexed by
// identifier. Chunks are never reallocated, so earlier tokens stay put while
// the arena grows.
type arena struct {
	chunks [][]byte
	refs   []tokenRef
	bytes  uint64
}

// add copies s into the arena and returns its index
func (a *arena) add(s string) uint64 {
	n := len(s)
	last := len(a.chunks) - 1

	if last < 0 || cap(a.chunks[last])-len(a.chunks[last]) < n {
		size := chunkSize
		if n > size {
			size = n
		}
		a.chunks = append(a.chunks, make([]byte, 0, size))
		last++
	}

	chunk := a.chunks[last]
	ref := tokenRef{
		chunk:  uint32(last),       // #nosec G115 - chunk count is bounded by memory
		offset: uint32(len(chunk)), // #nosec G115 - offset < chunkSize or 0
		length: uint32(n),          // #nosec G115 - tokens are bounded by the line size limit
	}
	a.chunks[last] = append(chunk, s...)
	a.refs = append(a.refs, ref)
	a.bytes += uint64(n)

	return uint64(len(a.refs) - 1)
}

// get returns the stored bytes of token id; the slice aliases the arena
func (a *arena) get(id uint64) []byte {
	ref := a.refs[id]
	return a.chunks[ref.chunk][ref.offset : ref.offset+ref.length]
}

func (a *arena) len() uint64 {
	return uint64(len(a.refs))
}
