package domain

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SchemaVersion is baked into every fingerprint. Bump it whenever the
// hashed representation of a document changes, so every persisted
// snapshot is invalidated in one release.
const SchemaVersion = 1

// Fingerprint identifies the exact content a snapshot was built from:
// the corpus documents, the embedding model, and the hashing schema.
// Two corpora produce the same fingerprint iff they would produce the
// same snapshot.
type Fingerprint struct {
	SchemaVersion int
	Hash          uint64
}

// String renders the persisted form: a version line followed by the
// decimal hash.
func (fp Fingerprint) String() string {
	return fmt.Sprintf("v%d\n%d", fp.SchemaVersion, fp.Hash)
}

// ParseFingerprint reads a persisted fingerprint back. A malformed
// value yields ErrCorrupt; callers treat that as a forced rebuild.
func ParseFingerprint(s string) (Fingerprint, error) {
	version, hash, ok := strings.Cut(s, "\n")
	if !ok || !strings.HasPrefix(version, "v") {
		return Fingerprint{}, fmt.Errorf("fingerprint %q: %w", s, ErrCorrupt)
	}
	v, err := strconv.Atoi(version[1:])
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint version %q: %w", version, ErrCorrupt)
	}
	h, err := strconv.ParseUint(hash, 10, 64)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint hash %q: %w", hash, ErrCorrupt)
	}
	return Fingerprint{SchemaVersion: v, Hash: h}, nil
}

// ComputeFingerprint hashes a corpus together with the embedding model
// identity and an optional corpus tag (e.g. the upstream API version).
// Document order never affects the result: the input is re-sorted by ID
// before hashing. An empty corpus has a well-defined fingerprint
// distinct from "no metadata at all".
func ComputeFingerprint(docs []Document, modelID, tag string) Fingerprint {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := xxhash.New()
	writeField(h, strconv.Itoa(SchemaVersion))
	writeField(h, modelID)
	writeField(h, tag)
	for _, d := range sorted {
		writeField(h, d.ID)
		writeField(h, d.Text)
		a := d.Attributes
		writeField(h, a.Query)
		writeField(h, a.Category)
		writeField(h, a.DataType)
		writeBool(h, a.Selectable)
		writeBool(h, a.Filterable)
		writeBool(h, a.Sortable)
		writeBool(h, a.MetricsCompatible)
		writeField(h, a.ResourceName)
	}
	return Fingerprint{SchemaVersion: SchemaVersion, Hash: h.Sum64()}
}

// writeField length-prefixes each value so that adjacent fields cannot
// collide by shifting bytes between them ("ab","c" vs "a","bc").
func writeField(h *xxhash.Digest, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	h.Write(buf[:])
	h.WriteString(s)
}

func writeBool(h *xxhash.Digest, b bool) {
	if b {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
}
