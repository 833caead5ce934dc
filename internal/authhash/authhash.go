// Package authhash computes the non-cryptographic password digest
// shared by the report and shelter subsystems.
package authhash

import "hash/maphash"

// hashSalt is appended to every password before hashing, matching the
// retained Rust source's PASSWORD_HASH_SORT constant exactly so that a
// password chosen under the original service still maps to the same
// digest shape (decimal string of a 64-bit hash).
const hashSalt = "^^ NeuroWhAI 42 5749"

// seed is fixed at process start so repeated calls within one process
// are stable; it does not need to match across restarts or nodes
// because nothing here is ever compared against data written by a
// different process.
var seed = maphash.MakeSeed()

// Hash returns the salted digest of pwd. It is NOT a cryptographic
// hash: maphash.Bytes can in principle collide or be distinguished
// from random, and the digest is only as strong as DefaultHasher was
// in the original implementation it stands in for.
func Hash(pwd string) uint64 {
	return maphash.Bytes(seed, []byte(pwd+hashSalt))
}

// CheckAdmin reports whether suppliedID/suppliedPwd match the
// configured admin credentials, hashing suppliedPwd the same way a
// stored password would be hashed.
func CheckAdmin(configID string, configPwdHash uint64, suppliedID, suppliedPwd string) bool {
	return configID == suppliedID && configPwdHash == Hash(suppliedPwd)
}
