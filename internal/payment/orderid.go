package payment

import (
	"crypto/rand"
	"encoding/hex"
)

// orderIDBytes gives 96 bits of entropy, enough that ids never collide in
// practice and cannot be guessed from prior observations.
const orderIDBytes = 12

// NewOrderID returns a fresh gateway order id: "order_" plus 24 hex chars
// from a cryptographically strong random source.
func NewOrderID() string {
	b := make([]byte, orderIDBytes)
	if _, err := rand.Read(b); err != nil {
		panic("payment: read random: " + err.Error())
	}
	return "order_" + hex.EncodeToString(b)
}
