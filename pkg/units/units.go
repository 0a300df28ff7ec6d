package units

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Amount represents a quantity of a fungible asset in its smallest
// denomination (wei-style base units). All custody accounting is strictly int64.
type Amount int64

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

// Now returns the current time as a TimeStamp.
func Now() TimeStamp {
	return TimeStamp(time.Now().UnixMicro())
}

func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// NextSeq generates the next sequence number atomically.
func NextSeq(ptr *uint64) uint64 {
	return atomic.AddUint64(ptr, 1)
}

// ParseAmount parses a base-10 integer string into an Amount without float64.
// Leading "+" is rejected; negative amounts parse but are rejected by the
// ledger at the precondition layer.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "+") || strings.Contains(s, ".") {
		return 0, fmt.Errorf("amount must be a plain base-unit integer: %q", s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount(v), nil
}

// ParseTimeStamp converts a string (ms) to TimeStamp (micros).
func ParseTimeStamp(s string) (TimeStamp, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return TimeStamp(ms * 1000), nil
}
