package common

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used for passwords read from the terminal.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// Truncate returns the first n runes of s followed by suffix, or s itself
// when it is not longer than n.
func Truncate(s string, n int, suffix string) string {
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}
