package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/kiranandcode/axiom-profiler-2/pkg/errors"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open reads and validates the facts document at path.
//
// Open fails with an [errors.ErrCodeInvalidPath] error if path is not a
// regular file, and with [errors.ErrCodeInvalidTrace] if the document cannot
// be decompressed, decoded or validated.
func Open(path string) (*Trace, error) {
	if err := errors.ValidateTracePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a facts document from r. Gzip and zstd input is detected by
// its magic number and decompressed before decoding. Read does not close r.
func Read(r io.Reader) (*Trace, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "read trace")
	}
	data, err := decompress(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "decompress trace")
	}

	var t Trace
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "decode trace")
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "validate trace")
	}

	sum := sha256.Sum256(raw)
	t.hash = hex.EncodeToString(sum[:])
	return &t, nil
}

func decompress(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case bytes.HasPrefix(raw, zstdMagic):
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		return zr.DecodeAll(raw, nil)
	default:
		return raw, nil
	}
}

// Validate checks the structural facts the graph engine relies on:
// known node and edge kinds, non-negative finite costs, Min <= Max depths
// and edge endpoints that name existing nodes.
//
// References from nodes into the quantifier, term, equality and
// instantiation tables are not checked; partial traces routinely contain
// dangling ones.
func (t *Trace) Validate() error {
	for i, n := range t.Nodes {
		switch n.Kind {
		case NodeENode, NodeGivenEquality, NodeTransEquality, NodeInstantiation:
		default:
			return fmt.Errorf("node %d: unknown kind %q", i, n.Kind)
		}
		if n.Cost < 0 || math.IsNaN(n.Cost) || math.IsInf(n.Cost, 0) {
			return fmt.Errorf("node %d: invalid cost %v", i, n.Cost)
		}
		if d := n.FwdDepth; d != nil && d.Min > d.Max {
			return fmt.Errorf("node %d: fwd_depth min %d > max %d", i, d.Min, d.Max)
		}
		if d := n.BwdDepth; d != nil && d.Min > d.Max {
			return fmt.Errorf("node %d: bwd_depth min %d > max %d", i, d.Min, d.Max)
		}
	}
	for i, e := range t.Edges {
		switch e.Kind {
		case EdgeYield, EdgeBlame, EdgeBlameEq, EdgeEqualityFact, EdgeEqualityCongruence,
			EdgeTEqualitySimple, EdgeTEqualityTransitive, EdgeTEqualityTransitiveBwd:
		default:
			return fmt.Errorf("edge %d: unknown kind %q", i, e.Kind)
		}
		if int(e.From) >= len(t.Nodes) || int(e.To) >= len(t.Nodes) {
			return fmt.Errorf("edge %d: endpoint %d->%d out of range (%d nodes)", i, e.From, e.To, len(t.Nodes))
		}
	}
	return nil
}

// HasDepths reports whether every node carries both depth metrics.
func (t *Trace) HasDepths() bool {
	for _, n := range t.Nodes {
		if n.FwdDepth == nil || n.BwdDepth == nil {
			return false
		}
	}
	return true
}
