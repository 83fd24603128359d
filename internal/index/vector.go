package index

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"

	"github.com/futig/docqa-backend/internal/entity"
)

// encodeVector stores a vector as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}

// cosine returns 0 when either vector has zero norm.
func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// CorpusHash identifies a chunk sequence embedded with a given model.
func CorpusHash(model string, chunks []entity.Chunk) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, c := range chunks {
		h.Write([]byte{0})
		h.Write([]byte(c.SourcePath))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(c.SourcePage)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(c.SequenceIndex)))
		h.Write([]byte{0})
		h.Write([]byte(c.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
