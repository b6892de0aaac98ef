package similarity

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rushteam/schemekit/core"
)

// codecFormat 是 blob 格式版本，结构变化时递增。
const codecFormat = 1

// ErrChecksumMismatch 表示 blob 已损坏。
var ErrChecksumMismatch = errors.New("similarity: matrix blob checksum mismatch")

// envelope 是落盘结构：gzip 压缩后的 gob 负载 + 未压缩负载的 SHA-256。
type envelope struct {
	Format   int
	Checksum [sha256.Size]byte
	Payload  []byte
}

// matrixState 是 Matrix 的可序列化形态。
type matrixState struct {
	Version string
	IDs     []int64
	Values  [][]float64
	BuiltAt time.Time
}

// Codec 负责 Matrix 与字节之间的转换：gob -> gzip，附带校验和。
type Codec struct{}

func (Codec) Encode(m *Matrix) ([]byte, error) {
	if m == nil {
		return nil, errors.New("similarity: encode nil matrix")
	}
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(matrixState{
		Version: m.Version,
		IDs:     m.IDs,
		Values:  m.Values,
		BuiltAt: m.BuiltAt,
	}); err != nil {
		return nil, fmt.Errorf("encode matrix: %w", err)
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress matrix: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("compress matrix: %w", err)
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(envelope{
		Format:   codecFormat,
		Checksum: sha256.Sum256(raw.Bytes()),
		Payload:  compressed.Bytes(),
	}); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out.Bytes(), nil
}

// Decode 解码并校验 blob；格式不符或结构异常视为矩阵过期，需要重建。
func (Codec) Decode(data []byte) (*Matrix, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %v: %w", err, core.ErrMatrixStale)
	}
	if env.Format != codecFormat {
		return nil, fmt.Errorf("matrix blob format %d, want %d: %w", env.Format, codecFormat, core.ErrMatrixStale)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.Payload))
	if err != nil {
		return nil, fmt.Errorf("decompress matrix: %v: %w", err, core.ErrMatrixStale)
	}
	defer func() { _ = gzr.Close() }()
	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("decompress matrix: %v: %w", err, core.ErrMatrixStale)
	}
	if sha256.Sum256(raw) != env.Checksum {
		return nil, fmt.Errorf("%w: %w", ErrChecksumMismatch, core.ErrMatrixStale)
	}

	var st matrixState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode matrix: %v: %w", err, core.ErrMatrixStale)
	}
	if st.IDs == nil {
		st.IDs = []int64{}
	}
	if st.Values == nil {
		st.Values = [][]float64{}
	}
	m := &Matrix{Version: st.Version, IDs: st.IDs, Values: st.Values, BuiltAt: st.BuiltAt}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.reindex()
	return m, nil
}
