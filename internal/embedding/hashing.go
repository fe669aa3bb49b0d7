package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

const defaultHashingDimensions = 256

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashingClient is an offline embedder client. Every lower-cased word is
// hashed into one of Dimensions buckets with a hash-derived sign, and the
// result is L2-normalized. Texts sharing words get similar vectors, which is
// enough for local runs and tests without a model server.
type HashingClient struct {
	Dimensions int
}

func NewHashingClient(dims int) *HashingClient {
	if dims <= 0 {
		dims = defaultHashingDimensions
	}
	return &HashingClient{Dimensions: dims}
}

func (h *HashingClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors = append(vectors, h.embed(text))
	}
	return vectors, nil
}

func (h *HashingClient) embed(text string) []float32 {
	v := make([]float32, h.Dimensions)
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		// keeps the vector non-zero so it stays comparable
		v[0] = 1
		return v
	}
	for _, word := range words {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(word))
		sum := hasher.Sum32()
		bucket := int(sum % uint32(h.Dimensions))
		if sum&(1<<31) != 0 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}
	v = Normalize(v)
	if allZero(v) {
		v[0] = 1
	}
	return v
}

func allZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
