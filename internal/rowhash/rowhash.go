// Package rowhash provides the keyed hash used to build composite-index
// keys out of an arbitrary tuple of column values. It exists so that
// composite keys are a fixed-size, collision-resistant pair of uint64s
// instead of a delimiter-joined string that a value containing the
// delimiter could forge.
package rowhash

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

// fixed key: this package hashes for in-process map partitioning only,
// never across a trust boundary, so a build-time constant key is
// sufficient — there is no adversarial input shaping composite keys
// that a random per-process key would defend against.
const (
	k0 = 0x646f776e6b6579a1
	k1 = 0x75706b6579666565
)

// Key is a fixed-size, comparable composite-index key.
type Key struct {
	hi, lo uint64
}

// Tuple hashes an ordered tuple of column values into a Key. Values
// are first rendered through fmt.Sprint (cheap and adequate here,
// since Table already guarantees each value's type matches its
// column's TypeCode before a tuple ever reaches this function) and
// each prefixed with its length as 8 little-endian bytes so that, unlike naive
// concatenation, ("ab","c") and ("a","bc") never collide.
func Tuple(values []any) Key {
	var buf []byte
	for _, v := range values {
		s := fmt.Sprint(v)
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, s...)
	}
	hi, lo := siphash.Hash128(k0, k1, buf)
	return Key{hi: hi, lo: lo}
}
