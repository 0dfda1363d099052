package usecase

import (
	"crypto/rand"
	"fmt"

	"coursemint/domain/model"
)

// CodeGenerator produces a candidate access code. Uniqueness is enforced by
// storage, not by the generator.
type CodeGenerator func() (string, error)

// RandomAccessCode draws AccessCodeLength symbols from AccessCodeAlphabet.
// The alphabet has 32 symbols so masking a random byte is unbiased.
func RandomAccessCode() (string, error) {
	buf := make([]byte, model.AccessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = model.AccessCodeAlphabet[int(b)&(len(model.AccessCodeAlphabet)-1)]
	}
	return string(buf), nil
}
