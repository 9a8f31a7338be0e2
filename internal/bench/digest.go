package bench

import (
	stdsha256 "crypto/sha256"
	"fmt"
	"strings"

	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
)

const (
	AlgorithmSHA256    = "sha256"
	AlgorithmSHA256Std = "sha256-std"
	AlgorithmBLAKE2b   = "blake2b"
)

// Digester hashes a payload into a 32 byte digest.
type Digester func(payload []byte) [32]byte

// Algorithms lists the names accepted by NewDigester.
func Algorithms() []string {
	return []string{AlgorithmSHA256, AlgorithmSHA256Std, AlgorithmBLAKE2b}
}

func NewDigester(algorithm string) (Digester, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmSHA256:
		return sha256.Sum256, nil
	case AlgorithmSHA256Std:
		return stdsha256.Sum256, nil
	case AlgorithmBLAKE2b:
		return blake2b.Sum256, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}
