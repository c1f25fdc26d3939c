package store

import "sync"

const profilePrefix = "profile:"

// keyPool provides reusable byte slices for building attribute keys.
var keyPool = sync.Pool{
	New: func() any {
		// prefix + user id + ':' + attribute name fits comfortably.
		return make([]byte, 0, 128)
	},
}

// buildAttrKey constructs "profile:{user}:{attr}" using a pooled buffer.
// Callers MUST call releaseKey when done with the key.
func buildAttrKey(userID, attr string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, profilePrefix...)
	buf = append(buf, userID...)
	buf = append(buf, ':')
	buf = append(buf, attr...)
	return buf
}

// userPrefix returns "profile:{user}:" for prefix iteration. Not pooled.
func userPrefix(userID string) []byte {
	return []byte(profilePrefix + userID + ":")
}

// releaseKey returns a key buffer to the pool.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
