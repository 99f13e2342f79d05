package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrKeySize is an exported constant or variable used by the secure channel.
	ErrKeySize = errors.New("envelope: secret is not a valid AES key size")
	// ErrProvider is an exported constant or variable used by the secure channel.
	ErrProvider = errors.New("envelope: cryptographic provider unavailable")
	// ErrDecrypt is an exported constant or variable used by the secure channel.
	ErrDecrypt = errors.New("envelope: decrypt failed")
)

// Codec defines a public type used by MaxiTaxi client APIs.
//
// Codec instances are intended to be configured during initialization and then
// treated as immutable unless documented otherwise.
type Codec struct {
	block cipher.Block
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec imports the shared secret as raw AES key material. The key never
// rotates within a session; per-message IV randomization in Encrypt is the
// only defense against ciphertext pattern leakage.
// NewCodec may return an error wrapping ErrKeySize when the secret is not
// 16, 24, or 32 bytes of UTF-8.
func NewCodec(secret string) (*Codec, error) {
	key := []byte(secret)
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d bytes", ErrKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return &Codec{block: block}, nil
}

// Encrypt describes the encrypt operation and its observable behavior.
//
// Encrypt serializes payload to UTF-8 JSON, pads with PKCS#7, and encrypts
// under AES-CBC with a freshly random 16-byte IV.
// Encrypt may return an error when payload is not JSON-serializable or when
// the random source is unavailable; it does not mutate shared global state
// and can be used concurrently.
func (c *Codec) Encrypt(payload any) (Envelope, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: encode payload: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	data := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(data, padded)

	return Envelope{IV: iv, Data: data}, nil
}

// Decrypt describes the decrypt operation and its observable behavior.
//
// Decrypt reverses Encrypt and returns the decrypted JSON document.
// Decrypt may return an error wrapping ErrDecrypt when the IV length is
// wrong, the ciphertext is malformed or truncated, the padding is invalid,
// or the decrypted bytes are not valid JSON; it does not mutate shared
// global state and can be used concurrently.
func (c *Codec) Decrypt(env Envelope) (json.RawMessage, error) {
	if len(env.IV) != aes.BlockSize {
		return nil, fmt.Errorf("%w: iv length %d", ErrDecrypt, len(env.IV))
	}
	if len(env.Data) == 0 || len(env.Data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrDecrypt, len(env.Data))
	}

	plain := make([]byte, len(env.Data))
	cipher.NewCBCDecrypter(c.block, env.IV).CryptBlocks(plain, env.Data)

	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if !json.Valid(unpadded) {
		return nil, fmt.Errorf("%w: plaintext is not valid JSON", ErrDecrypt)
	}
	return json.RawMessage(unpadded), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errors.New("invalid padding byte")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, errors.New("inconsistent padding")
		}
	}
	return b[:len(b)-n], nil
}
