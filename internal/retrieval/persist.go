package retrieval

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/xxxsen/insuregenie/internal/filestore"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
)

const (
	vectorMagic   = "IGVX"
	vectorVersion = uint32(1)
)

// Keys locate the two halves of a persisted index.
type Keys struct {
	Vectors   string
	Responses string
}

type responsesFile struct {
	Model     string              `json:"model"`
	Dimension int                 `json:"dimension"`
	Responses []string            `json:"responses"`
	Contexts  []map[string]string `json:"contexts"`
}

// Save writes the vectors and the paired templates. An empty index is not
// persisted.
func Save(ctx context.Context, store filestore.Store, keys Keys, ix *Index) error {
	if ix.Len() == 0 {
		return appErr.ErrEmptyIndex
	}
	var buf bytes.Buffer
	buf.WriteString(vectorMagic)
	header := []uint32{vectorVersion, uint32(ix.dim), uint32(ix.Len())}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, ix.vectors); err != nil {
		return err
	}
	if err := filestore.WriteBytes(ctx, store, keys.Vectors, buf.Bytes()); err != nil {
		return fmt.Errorf("write index vectors: %w", err)
	}
	meta, err := json.Marshal(responsesFile{
		Model:     ix.model,
		Dimension: ix.dim,
		Responses: ix.responses,
		Contexts:  ix.contexts,
	})
	if err != nil {
		return err
	}
	if err := filestore.WriteBytes(ctx, store, keys.Responses, meta); err != nil {
		return fmt.Errorf("write index responses: %w", err)
	}
	return nil
}

// Load reads an index written by Save. Any missing, truncated or
// inconsistent part yields an error wrapping ErrIndexNotFound.
func Load(ctx context.Context, store filestore.Store, keys Keys) (*Index, error) {
	raw, err := readArtifact(ctx, store, keys.Vectors)
	if err != nil {
		return nil, err
	}
	dim, vectors, err := decodeVectors(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrIndexNotFound, keys.Vectors, err)
	}
	metaRaw, err := readArtifact(ctx, store, keys.Responses)
	if err != nil {
		return nil, err
	}
	var meta responsesFile
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrIndexNotFound, keys.Responses, err)
	}
	count := len(meta.Responses)
	if dim > 0 && len(vectors)/dim != count {
		return nil, fmt.Errorf("%w: %d vectors but %d responses", appErr.ErrIndexNotFound, len(vectors)/dim, count)
	}
	if meta.Contexts == nil {
		meta.Contexts = make([]map[string]string, count)
	}
	if len(meta.Contexts) != count {
		return nil, fmt.Errorf("%w: %d responses but %d contexts", appErr.ErrIndexNotFound, count, len(meta.Contexts))
	}
	if meta.Dimension != 0 && meta.Dimension != dim {
		return nil, fmt.Errorf("%w: vectors have dim %d, responses file says %d", appErr.ErrIndexNotFound, dim, meta.Dimension)
	}
	ix := NewIndex(meta.Model, dim)
	for i := 0; i < count; i++ {
		if err := ix.Add(vectors[i*dim:(i+1)*dim], meta.Responses[i], meta.Contexts[i]); err != nil {
			return nil, err
		}
	}
	if ix.Len() == 0 {
		return nil, appErr.ErrEmptyIndex
	}
	return ix, nil
}

func readArtifact(ctx context.Context, store filestore.Store, key string) ([]byte, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: no artifact store for %s", appErr.ErrIndexNotFound, key)
	}
	data, err := filestore.ReadBytes(ctx, store, key)
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, key)
		}
		return nil, fmt.Errorf("read index %s: %w", key, err)
	}
	return data, nil
}

func decodeVectors(raw []byte) (int, []float32, error) {
	r := bytes.NewReader(raw)
	magic := make([]byte, len(vectorMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != vectorMagic {
		return 0, nil, fmt.Errorf("bad magic")
	}
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != vectorVersion {
		return 0, nil, fmt.Errorf("unsupported version %d", header[0])
	}
	dim, count := int(header[1]), int(header[2])
	if dim <= 0 {
		return 0, nil, fmt.Errorf("invalid dimension %d", dim)
	}
	total := uint64(dim) * uint64(count)
	if total*4 != uint64(r.Len()) || total > math.MaxInt32 {
		return 0, nil, fmt.Errorf("payload is %d bytes, want %d", r.Len(), total*4)
	}
	vectors := make([]float32, total)
	if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
		return 0, nil, fmt.Errorf("read vectors: %w", err)
	}
	return dim, vectors, nil
}
