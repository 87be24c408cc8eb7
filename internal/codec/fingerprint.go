package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/firedoc/internal/value"
)

// DomainValue is the domain prefix for value fingerprints.
// The version suffix allows a future algorithm migration.
const DomainValue = "firedoc/value/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of v that is stable across map
// insertion order, Unicode normalization form, and integral doubles versus
// integers. Values that compare Equal share a fingerprint.
func Fingerprint(v value.Value) (string, error) {
	canonical, err := EncodeText(Canonicalize(v))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainValue, canonical), nil
}

// Canonicalize rewrites v into its canonical representative: strings and
// keys in NFC, map keys sorted, and doubles with an exact int64 value
// converted to integers.
func Canonicalize(v value.Value) value.Value {
	switch val := v.(type) {
	case nil:
		return value.Null{}
	case value.String:
		return value.NewString(norm.NFC.String(string(val)))
	case value.Number:
		if val.IsInt() {
			return val
		}
		if i, ok := exactInt(val.Float()); ok {
			return value.NewInt(i)
		}
		return val
	case value.Array:
		out := make(value.Array, len(val))
		for i, elem := range val {
			out[i] = Canonicalize(elem)
		}
		return out
	case value.Map:
		// Keys that collide after normalization keep the last value,
		// matching NewMap's duplicate handling.
		normalized := make([]value.Entry, 0, val.Len())
		for _, e := range val.Entries() {
			normalized = append(normalized, value.E(norm.NFC.String(e.Key), Canonicalize(e.Value)))
		}
		unsorted := value.NewMap(normalized...)
		sorted := make([]value.Entry, 0, unsorted.Len())
		for _, key := range unsorted.SortedKeys() {
			elem, _ := unsorted.Get(key)
			sorted = append(sorted, value.E(key, elem))
		}
		return value.NewMap(sorted...)
	default:
		return v
	}
}

// exactInt reports whether f holds an integer representable as int64.
// Negative zero maps to 0.
func exactInt(f float64) (int64, bool) {
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return 0, false
	}
	return int64(f), true
}
