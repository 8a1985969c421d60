// Package credentials generates temporary passwords for caregiver accounts.
package credentials

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generating memorable temporary passwords
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "calm", "swift", "clever", "jolly",
	"gentle", "kind", "steady", "lucky", "merry", "noble", "quick", "cosmic",
}

var nouns = []string{
	"otter", "tiger", "eagle", "dolphin", "panda", "lion", "maple", "river",
	"harbor", "meadow", "comet", "willow", "ember", "pebble", "falcon", "garden",
}

const (
	digits  = "0123456789"
	symbols = "!@#$%*?"
)

// GenerateTemporaryPassword returns a password like "Sunny-Otter-4821!".
// It always contains upper and lower case letters, digits and a symbol.
func GenerateTemporaryPassword() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}
	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}
	number, err := randomString(digits, 4)
	if err != nil {
		return "", err
	}
	symbol, err := randomString(symbols, 1)
	if err != nil {
		return "", err
	}
	return capitalize(adjective) + "-" + capitalize(noun) + "-" + number + symbol, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func randomString(chars string, n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		out[i] = chars[num.Int64()]
	}
	return string(out), nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}
	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}
	return slice[num.Int64()], nil
}
