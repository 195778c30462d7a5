// Package tracking generates the public-facing shipment lookup codes.
package tracking

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const Prefix = "KH"

// span covers [100000, 999999] so the suffix is always six digits.
const (
	suffixMin  = 100000
	suffixSpan = 900000
)

// NewNumber returns a code of the form KH followed by six decimal digits.
func NewNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", Prefix, suffixMin+n.Int64()), nil
}
