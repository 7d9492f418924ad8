package cache

// Key scheme for everything shortly stores in Redis. All key construction
// lives here so the layout can change in one place.

const (
	entryPrefix = "code:"
	hitPrefix   = "click:"
	ratePrefix  = "rl:"
)

// EntryKey is the cached code -> target mapping.
func EntryKey(code string) string { return entryPrefix + code }

// HitKey is the pending (not yet flushed) click counter for a code.
func HitKey(code string) string { return hitPrefix + code }

// HitKeyPrefix is the scan prefix covering every pending click counter.
func HitKeyPrefix() string { return hitPrefix }

// CodeFromHitKey recovers the code from a pending click key.
func CodeFromHitKey(key string) string { return key[len(hitPrefix):] }

// WindowKey is the fixed-window rate counter for a client identity within
// one time bucket.
func WindowKey(identity, bucket string) string {
	return ratePrefix + identity + ":" + bucket
}
