package pool

import "sync"

// readBufPool pools fixed-size scratch slices used by streaming adapters when
// pumping data between a source reader and a compression context.
var readBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, StreamBufferDefaultSize)
		return &b
	},
}

// GetReadBuf retrieves a scratch byte slice sized for streaming reads.
//
// The returned slice has length StreamBufferDefaultSize. The caller must call
// the returned cleanup function (typically with defer) to return the slice to
// the pool.
//
// Example:
//
//	buf, cleanup := pool.GetReadBuf()
//	defer cleanup()
//	n, err := r.Read(buf)
func GetReadBuf() ([]byte, func()) {
	ptr, _ := readBufPool.Get().(*[]byte)
	return *ptr, func() { readBufPool.Put(ptr) }
}
