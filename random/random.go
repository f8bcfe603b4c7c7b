// Package random generates short alphanumeric strings for fixtures and
// non-secret identifiers.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var (
	mu  sync.Mutex
	rng *mrand.Rand
)

func init() {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	rng = mrand.New(mrand.NewSource(seed))
}

// String returns length random alphanumeric characters. Not suitable
// for secrets.
func String(length int) string {
	mu.Lock()
	defer mu.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}
