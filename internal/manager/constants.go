package manager

import (
	"time"
)

// RecordTTL defines how long hash records stay queryable in the manager
const RecordTTL = time.Minute * 15

const (
	// Server -> Subscriber

	// Record broadcast event: RECORD <ACTUAL_JSON_OF_RECORD>
	RecordEvent = "RECORD"

	// Rejected subscriber event: ERROR <REASON>
	ErrorEvent = "ERROR"

	// Subscriber -> Server

	// Record lookup event: LOOKUP <ORDER_HASH_HEX>
	LookupEvent = "LOOKUP"
)
