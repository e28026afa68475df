// Package password implements salted password digests, salt generation and the
// three-level strength classifier shown next to password inputs.
//
// # Output format
//
// Every [Hasher] produces a 64-character lowercase hex digest and takes the salt
// as the 32-character hex string stored beside it:
//
//	SHA256: hex(sha256(password || salt))
//	Argon2: hex(argon2id(password, salt, t, m, p, 32))
//
// The two share a record shape, so switching algorithms needs no schema change,
// but digests produced by one never verify under the other.
//
// # Architecture boundaries
//
// This package owns hashing, verification and strength classification only. Which
// strengths are accepted is decided by the registration and reset flows.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive digests.
//   - Import any other localauth package.
//   - Log plaintext passwords, salts or digests.
package password
