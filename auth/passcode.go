package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// PasscodeLength is the number of decimal digits in a generated passcode.
const PasscodeLength = 6

// GeneratePasscode returns a fixed-length numeric passcode, each digit drawn
// uniformly from '0'-'9'. The code space is 10^6; the short validity window
// is the main guessing defense.
func GeneratePasscode() string {
	var b strings.Builder
	b.Grow(PasscodeLength)
	for i := 0; i < PasscodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String()
}
