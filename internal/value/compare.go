package value

import (
	"bytes"
	"cmp"
	"math"
	"strings"

	"github.com/roach88/firedoc/internal/path"
)

// Compare is the default total order over all values. It returns -1, 0 or
// +1. Values of different categories order by rank regardless of content.
func Compare(a, b Value) int {
	ta, tb := TypeOf(a), TypeOf(b)
	if ta != tb {
		return cmp.Compare(ta.Rank(), tb.Rank())
	}
	return compareSameType(a, b)
}

// Equal reports whether a and b are equal under the default order.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// compareSameType applies the within-type rules. Both values must share a
// category.
func compareSameType(a, b Value) int {
	switch av := a.(type) {
	case nil, Null, NaN:
		return 0
	case Boolean:
		bv := b.(Boolean)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case Number:
		return compareNumbers(av, b.(Number))
	case Date:
		return cmp.Compare(av, b.(Date))
	case String:
		return strings.Compare(string(av), string(b.(String)))
	case Bytes:
		return bytes.Compare(av, b.(Bytes))
	case Reference:
		return path.Compare(av.Path, b.(Reference).Path)
	case GeoPoint:
		bv := b.(GeoPoint)
		if c := cmp.Compare(av.Lat, bv.Lat); c != 0 {
			return c
		}
		return cmp.Compare(av.Lon, bv.Lon)
	case Array:
		return compareArrays(av, b.(Array))
	case Map:
		return compareMaps(av, b.(Map))
	default:
		return 0
	}
}

func compareNumbers(a, b Number) int {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return cmp.Compare(a.i, b.i)
	case a.kind == KindDouble && b.kind == KindDouble:
		return cmp.Compare(a.f, b.f)
	case a.kind == KindInt:
		return compareIntDouble(a.i, b.f)
	default:
		return -compareIntDouble(b.i, a.f)
	}
}

// twoTo63 is 2^63, the first float64 above every int64.
const twoTo63 = 9223372036854775808.0

// compareIntDouble compares an int64 and a float64 by exact mathematical
// value. No conversion here rounds: the float is split into an int64 whole
// part and a fractional remainder, both exactly representable.
func compareIntDouble(i int64, f float64) int {
	switch {
	case math.IsInf(f, 1) || f >= twoTo63:
		return -1
	case math.IsInf(f, -1) || f < -twoTo63:
		return 1
	}

	whole := int64(f)
	if c := cmp.Compare(i, whole); c != 0 {
		return c
	}
	frac := f - float64(whole)
	switch {
	case frac > 0:
		return -1
	case frac < 0:
		return 1
	default:
		return 0
	}
}

func compareArrays(a, b Array) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// compareMaps walks both maps in sorted key order, comparing key then value
// for each position. A map that runs out of keys first sorts first.
func compareMaps(a, b Map) int {
	ak, bk := a.SortedKeys(), b.SortedKeys()
	n := min(len(ak), len(bk))
	for i := 0; i < n; i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		av, _ := a.Get(ak[i])
		bv, _ := b.Get(bk[i])
		if c := Compare(av, bv); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}
