package common

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used for plaintext passwords read from the terminal once they are hashed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
