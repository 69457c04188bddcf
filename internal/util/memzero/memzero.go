// Package memzero wipes secret bytes once they are no longer needed.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// ZeroAll wipes every slice in bufs.
func ZeroAll(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}
