package musicdb

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// KeySize is the required length of the decryption key.
const KeySize = 16

// Cipher decrypts payload blocks with AES-128 in ECB mode, no padding.
// It holds only the immutable key schedule and is safe for concurrent use.
type Cipher struct {
	block cipher.Block
}

// NewCipher validates the key and prepares the block cipher.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: decryption key is not set", ErrConfiguration)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: decryption key must be %d bytes, got %d", ErrConfiguration, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &Cipher{block: block}, nil
}

// Decrypt returns the plaintext of src. len(src) must be a multiple of the
// block size.
func (c *Cipher) Decrypt(src []byte) ([]byte, error) {
	bs := c.block.BlockSize()
	if len(src)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", ErrCrypto, len(src), bs)
	}
	out := make([]byte, len(src))
	for i := 0; i < len(src); i += bs {
		c.block.Decrypt(out[i:i+bs], src[i:i+bs])
	}
	return out, nil
}
