// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const passwordLetters = "abcdefghijklmnopqrstuvwxyz"

// GenerateOneTimePassword builds a random initial password for console-created
// accounts: a capitalized four-letter fragment, a literal '#', and a four-digit
// number, shuffled together.
//
// The result is shown to the operator exactly once and is expected to be
// changed by the user at first login.
func GenerateOneTimePassword() (string, error) {

	// Four random lowercase letters, first one capitalized
	letters := make([]byte, 4)
	for i := range letters {
		index, err := randomInt(int64(len(passwordLetters)))
		if err != nil {
			return "", err
		}
		letters[i] = passwordLetters[index]
	}
	fragment := strings.ToUpper(string(letters[0])) + string(letters[1:])

	// Four-digit numeric suffix
	number, err := randomInt(9000)
	if err != nil {
		return "", err
	}

	raw := []byte(fmt.Sprintf("%s#%04d", fragment, number+1000))

	// Fisher-Yates shuffle with crypto randomness
	for i := len(raw) - 1; i > 0; i-- {
		j, err := randomInt(int64(i + 1))
		if err != nil {
			return "", err
		}
		raw[i], raw[j] = raw[j], raw[i]
	}

	return string(raw), nil
}

// randomInt returns a uniform random value in [0, max).
func randomInt(max int64) (int64, error) {
	value, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, fmt.Errorf("sec: failed to read random source: %w", err)
	}
	return value.Int64(), nil
}
