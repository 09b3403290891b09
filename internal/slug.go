package internal

import "math/rand/v2"

const slugAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Slug returns a random alphanumeric string of the given length, used to
// suffix container names so repeated runs don't collide. Uniqueness is
// probabilistic: with 62 characters per position the chance of a repeat
// stays negligible for ephemeral use, but this is not suitable for
// identity-sensitive naming.
func Slug(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = slugAlphabet[rand.IntN(len(slugAlphabet))]
	}
	return string(b)
}
