package chat

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID mints `session-<unix millis>-<9 base36 chars>`.
func NewSessionID(now time.Time, rnd *rand.Rand) string {
	var sb strings.Builder
	for i := 0; i < 9; i++ {
		sb.WriteByte(base36[rnd.IntN(len(base36))])
	}
	return fmt.Sprintf("session-%d-%s", now.UnixMilli(), sb.String())
}
