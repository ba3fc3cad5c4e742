package services

import (
	"fmt"
	"time"
)

const (
	orderNumberPrefix    = "ECO"
	trackingNumberPrefix = "TRK"
	base36Alphabet       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// newOrderNumber formats ECO-NNNNNN-XXXXXX: the low six digits of the
// millisecond clock and six random base-36 characters.
func newOrderNumber(now time.Time, randN func(int) int) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36Alphabet[randN(len(base36Alphabet))]
	}
	return fmt.Sprintf("%s-%06d-%s", orderNumberPrefix, now.UnixMilli()%1_000_000, suffix)
}

// newTrackingNumber formats TRK followed by the low eight digits of the
// millisecond clock.
func newTrackingNumber(now time.Time) string {
	return fmt.Sprintf("%s%08d", trackingNumberPrefix, now.UnixMilli()%100_000_000)
}
