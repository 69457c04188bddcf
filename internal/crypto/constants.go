package crypto

const (
	// KeySize is the size of an AES-256 message key in bytes.
	KeySize = 32
	// NonceSize is the size of an AES-GCM nonce in bytes.
	NonceSize = 12
	// TagSize is the size of an AES-GCM authentication tag in bytes.
	TagSize = 16

	// coordSize is the size of one P-256 affine coordinate in bytes.
	coordSize = 32
	// uncompressedPointSize is 0x04 || X || Y.
	uncompressedPointSize = 1 + 2*coordSize
)
