package helpers

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const DefaultOTPLength = 6

// GenOTPCode returns a zero-padded numeric code of the given length with each
// digit drawn uniformly from crypto/rand. length <= 0 means DefaultOTPLength.
func GenOTPCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultOTPLength
	}
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
