package term

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Domain prefixes for content digests. The version suffix allows the
// encoding to change without colliding with old digests.
const (
	DomainSignature = "tracefold/signature/v1"
	DomainChunk     = "tracefold/chunk/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureKey digests the merge signature of p: its formal order and the
// canonical pairs of its contraction. Products with equal keys are like
// terms. ok is false when p carries no contraction; such products are
// never like terms of anything.
func SignatureKey(p *Product) (key string, ok bool) {
	c := p.Contraction()
	if c == nil {
		return "", false
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(p.Order()))
	for _, pair := range c.Canonical() {
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(pair.I))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(pair.J))
	}
	return hashWithDomain(DomainSignature, []byte(b.String())), true
}

// ChunkDigest digests an encoded checkpoint chunk.
func ChunkDigest(data []byte) string {
	return hashWithDomain(DomainChunk, data)
}
