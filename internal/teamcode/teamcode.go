// Package teamcode generates the short join codes users share to add
// teammates.
package teamcode

import (
	"crypto/rand"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/internal/models"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength is the number of characters in a join code.
	CodeLength = 6

	// MaxAttempts bounds the collision-retry loop in GenerateUnique. With a
	// 36^6 code space, exhausting it means something is badly wrong.
	MaxAttempts = 5
)

var ErrExhausted = errors.New("could not generate a unique team code")

// Generate returns a random uppercase alphanumeric code.
func Generate() (string, error) {
	// Bytes at or above the largest multiple of len(alphabet) are redrawn so
	// every character is equally likely.
	const limit = 256 - 256%len(alphabet)

	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)

	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			code = append(code, alphabet[int(b)%len(alphabet)])

			if len(code) == CodeLength {
				break
			}
		}
	}

	return string(code), nil
}

// GenerateUnique draws codes until one is unused, giving up after
// MaxAttempts with ErrExhausted. Callers run this inside the same
// transaction as the team insert so two concurrent creations cannot both
// observe a code as free.
func GenerateUnique(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		code, err := Generate()

		if err != nil {
			return "", err
		}

		taken, err := codeTaken(tx, code)

		if err != nil {
			return "", err
		}

		if !taken {
			return code, nil
		}
	}

	return "", ErrExhausted
}

// codeTaken reports whether any team row holds the code. Soft-deleted teams
// still occupy the unique index, so the count ignores deleted_at.
func codeTaken(tx *gorm.DB, code string) (bool, error) {
	var count int64

	if err := tx.Unscoped().Model(&models.Team{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
