// (c) 2019-2020, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"golang.org/x/crypto/blake2b"
)

// ID256 is a fixed-size content hash, used to derive deterministic ids from
// canonical serializations (event ids, see eventlog.Log.Append).
type ID256 [32]byte

// ComputeHash256Array hashes data with BLAKE2b-256 and returns it as an
// ID256.
func ComputeHash256Array(data []byte) ID256 {
	return ID256(blake2b.Sum256(data))
}

// ComputeHash256 hashes data with BLAKE2b-256 and returns it as bytes.
func ComputeHash256(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}