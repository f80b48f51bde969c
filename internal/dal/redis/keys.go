package redis

import "time"

const (
	// Session lookup: session:{token} -> JSON identity
	KeySession = "session:%s"

	// Subscriber dedup: dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Currency rates cache: rates:{base} -> JSON map of rates
	KeyRates = "rates:%s"
)

var (
	TTLSession = 24 * time.Hour
	TTLDedup   = 48 * time.Hour
	TTLRates   = 1 * time.Hour
)
