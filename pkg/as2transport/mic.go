package as2transport

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
)

// ComputeMIC computes the Message Integrity Check over content using alg's
// digest, base64-encoded and followed by the algorithm name, as it appears
// in an MDN's Received-Content-MIC field.
func ComputeMIC(content []byte, alg SigningAlgorithm) string {
	var sum []byte
	if alg == SHA1 {
		digest := sha1.Sum(content)
		sum = digest[:]
	} else {
		digest := sha256.Sum256(content)
		sum = digest[:]
	}
	return base64.StdEncoding.EncodeToString(sum) + ", " + alg.MicAlgName()
}
