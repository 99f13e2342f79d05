// Package envelope implements the symmetric wire codec shared with the
// MaxiTaxi server: JSON payloads are AES-CBC encrypted under a static
// pre-shared key and framed as {"iv":[...],"data":[...]} with both fields
// serialized as plain numeric byte arrays.
//
// # Wire invariants
//
// The IV is 16 freshly random bytes per Encrypt call and is never reused.
// Ciphertext length is always a multiple of the AES block size (PKCS#7
// padding). Byte slices marshal to numeric arrays, never base64; the server
// reconstructs buffers element by element.
//
// # Architecture boundaries
//
// This package owns key import and the Envelope frame. It does NOT decide
// which endpoints are encrypted, attach credentials, or interpret decrypted
// payloads; those responsibilities belong to the dispatcher.
//
// # What this package must NOT do
//
//   - Import the root package or any sibling package (no upward imports).
//   - Derive or rotate keys; the secret is used as raw key material so the
//     server can decrypt with the same bytes.
//   - Log plaintext or key material.
package envelope
