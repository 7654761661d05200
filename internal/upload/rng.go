package upload

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"sync"

	"github.com/juju/errors"

	"github.com/envnode/envnode/helpers"
)

// personalization is mixed into the DRBG seed so two nodes seeded from
// a weak entropy source still diverge per application.
const personalization = "envnode_https_client"

// drbg is a CTR-mode deterministic random generator seeded once per
// session from an entropy source plus the personalization string.
type drbg struct {
	lk     sync.Mutex
	stream cipher.Stream
}

func newDRBG(entropy io.Reader) (*drbg, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	var seed [48]byte
	if _, err := io.ReadFull(entropy, seed[:]); err != nil {
		return nil, errors.Annotate(err, "drbg seed")
	}
	key := sha256.Sum256(append(seed[:32:32], personalization...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Annotate(err, "drbg cipher")
	}
	var iv [aes.BlockSize]byte
	copy(iv[:], seed[32:])
	return &drbg{stream: cipher.NewCTR(block, iv[:])}, nil
}

func (g *drbg) Read(p []byte) (int, error) {
	helpers.WithLock(&g.lk, func() {
		for i := range p {
			p[i] = 0
		}
		g.stream.XORKeyStream(p, p)
	})
	return len(p), nil
}
