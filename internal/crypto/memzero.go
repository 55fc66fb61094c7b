package crypto

import "runtime"

// Wipe zeroes each provided buffer. This is best-effort and aims to reduce
// the chance of the compiler eliding the write.
//
//go:noinline
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
	runtime.KeepAlive(bufs)
}
