package codec

import (
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/value"
)

// Kind tags used as protobuf field numbers in the binary form.
// Tags are part of the persisted layout and must never be renumbered.
const (
	tagNull      protowire.Number = 1
	tagNaN       protowire.Number = 2
	tagBoolean   protowire.Number = 3
	tagInt       protowire.Number = 4
	tagDouble    protowire.Number = 5
	tagDate      protowire.Number = 6
	tagString    protowire.Number = 7
	tagBytes     protowire.Number = 8
	tagReference protowire.Number = 9
	tagGeoPoint  protowire.Number = 10
	tagArray     protowire.Number = 11
	tagMap       protowire.Number = 12
)

// Field numbers inside nested messages.
const (
	fieldSegment  protowire.Number = 1 // Reference: repeated segment
	fieldLat      protowire.Number = 1 // GeoPoint
	fieldLon      protowire.Number = 2 // GeoPoint
	fieldEntry    protowire.Number = 1 // Map: repeated entry message
	fieldEntryKey protowire.Number = 1 // Map entry
	fieldEntryVal protowire.Number = 2 // Map entry
)

// EncodeBinary renders v in the binary form. A nil Value encodes as NULL.
func EncodeBinary(v value.Value) ([]byte, error) {
	return appendValue(nil, v, 0)
}

// MustEncodeBinary is like EncodeBinary but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEncodeBinary(v value.Value) []byte {
	data, err := EncodeBinary(v)
	if err != nil {
		panic(err)
	}
	return data
}

// appendValue encodes v, which sits inside depth containers.
func appendValue(b []byte, v value.Value, depth int) ([]byte, error) {
	switch val := v.(type) {
	case nil, value.Null:
		b = protowire.AppendTag(b, tagNull, protowire.VarintType)
		return protowire.AppendVarint(b, 0), nil

	case value.NaN:
		b = protowire.AppendTag(b, tagNaN, protowire.VarintType)
		return protowire.AppendVarint(b, 0), nil

	case value.Boolean:
		b = protowire.AppendTag(b, tagBoolean, protowire.VarintType)
		return protowire.AppendVarint(b, protowire.EncodeBool(bool(val))), nil

	case value.Number:
		if val.IsInt() {
			b = protowire.AppendTag(b, tagInt, protowire.VarintType)
			return protowire.AppendVarint(b, protowire.EncodeZigZag(val.Int())), nil
		}
		b = protowire.AppendTag(b, tagDouble, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, math.Float64bits(val.Float())), nil

	case value.Date:
		b = protowire.AppendTag(b, tagDate, protowire.VarintType)
		return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(val))), nil

	case value.String:
		if !utf8.ValidString(string(val)) {
			return nil, fmt.Errorf("invalid UTF-8 in string %q", string(val))
		}
		b = protowire.AppendTag(b, tagString, protowire.BytesType)
		return protowire.AppendString(b, string(val)), nil

	case value.Bytes:
		b = protowire.AppendTag(b, tagBytes, protowire.BytesType)
		return protowire.AppendBytes(b, val), nil

	case value.Reference:
		var inner []byte
		for _, seg := range val.Path.Segments() {
			inner = protowire.AppendTag(inner, fieldSegment, protowire.BytesType)
			inner = protowire.AppendString(inner, seg)
		}
		b = protowire.AppendTag(b, tagReference, protowire.BytesType)
		return protowire.AppendBytes(b, inner), nil

	case value.GeoPoint:
		if err := validateGeoPoint(val.Lat, val.Lon); err != nil {
			return nil, err
		}
		var inner []byte
		inner = protowire.AppendTag(inner, fieldLat, protowire.Fixed64Type)
		inner = protowire.AppendFixed64(inner, math.Float64bits(val.Lat))
		inner = protowire.AppendTag(inner, fieldLon, protowire.Fixed64Type)
		inner = protowire.AppendFixed64(inner, math.Float64bits(val.Lon))
		b = protowire.AppendTag(b, tagGeoPoint, protowire.BytesType)
		return protowire.AppendBytes(b, inner), nil

	case value.Array:
		if depth >= value.MaxDepth {
			return nil, errTooDeep()
		}
		var inner []byte
		for i, elem := range val {
			var err error
			inner, err = appendValue(inner, elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		b = protowire.AppendTag(b, tagArray, protowire.BytesType)
		return protowire.AppendBytes(b, inner), nil

	case value.Map:
		if depth >= value.MaxDepth {
			return nil, errTooDeep()
		}
		var inner []byte
		for _, e := range val.Entries() {
			if !utf8.ValidString(e.Key) {
				return nil, fmt.Errorf("invalid UTF-8 in key %q", e.Key)
			}
			encoded, err := appendValue(nil, e.Value, depth+1)
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", e.Key, err)
			}
			var entry []byte
			entry = protowire.AppendTag(entry, fieldEntryKey, protowire.BytesType)
			entry = protowire.AppendString(entry, e.Key)
			entry = protowire.AppendTag(entry, fieldEntryVal, protowire.BytesType)
			entry = protowire.AppendBytes(entry, encoded)

			inner = protowire.AppendTag(inner, fieldEntry, protowire.BytesType)
			inner = protowire.AppendBytes(inner, entry)
		}
		b = protowire.AppendTag(b, tagMap, protowire.BytesType)
		return protowire.AppendBytes(b, inner), nil

	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// DecodeBinary parses exactly one value in binary form.
func DecodeBinary(data []byte) (value.Value, error) {
	root := rootLocation()
	v, n, err := consumeValue(data, root)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, binaryError(root, "%d trailing bytes", len(data)-n)
	}
	return v, nil
}

// consumeValue decodes one value from the front of b and returns the
// number of bytes used.
func consumeValue(b []byte, loc *location) (value.Value, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return nil, 0, wrapBinaryError(loc, "reading tag", protowire.ParseError(n))
	}
	rest := b[n:]

	want, ok := wireTypes[num]
	if !ok {
		return nil, 0, binaryError(loc, "unknown kind tag %d", num)
	}
	if typ != want {
		return nil, 0, binaryError(loc, "kind tag %d has wire type %d, want %d", num, typ, want)
	}

	switch typ {
	case protowire.VarintType:
		x, m := protowire.ConsumeVarint(rest)
		if m < 0 {
			return nil, 0, wrapBinaryError(loc, "reading varint", protowire.ParseError(m))
		}
		v, err := decodeVarintValue(num, x, loc)
		return v, n + m, err

	case protowire.Fixed64Type:
		x, m := protowire.ConsumeFixed64(rest)
		if m < 0 {
			return nil, 0, wrapBinaryError(loc, "reading fixed64", protowire.ParseError(m))
		}
		f := math.Float64frombits(x)
		if math.IsNaN(f) {
			return nil, 0, binaryError(loc, "double payload is NaN")
		}
		return value.NewDouble(f), n + m, nil

	default:
		payload, m := protowire.ConsumeBytes(rest)
		if m < 0 {
			return nil, 0, wrapBinaryError(loc, "reading length-delimited payload", protowire.ParseError(m))
		}
		v, err := decodeBytesValue(num, payload, loc)
		return v, n + m, err
	}
}

var wireTypes = map[protowire.Number]protowire.Type{
	tagNull:      protowire.VarintType,
	tagNaN:       protowire.VarintType,
	tagBoolean:   protowire.VarintType,
	tagInt:       protowire.VarintType,
	tagDouble:    protowire.Fixed64Type,
	tagDate:      protowire.VarintType,
	tagString:    protowire.BytesType,
	tagBytes:     protowire.BytesType,
	tagReference: protowire.BytesType,
	tagGeoPoint:  protowire.BytesType,
	tagArray:     protowire.BytesType,
	tagMap:       protowire.BytesType,
}

func decodeVarintValue(num protowire.Number, x uint64, loc *location) (value.Value, error) {
	switch num {
	case tagNull, tagNaN:
		if x != 0 {
			return nil, binaryError(loc, "non-zero payload %d for unit kind", x)
		}
		if num == tagNull {
			return value.Null{}, nil
		}
		return value.NaN{}, nil
	case tagBoolean:
		if x > 1 {
			return nil, binaryError(loc, "boolean payload %d", x)
		}
		return value.Boolean(protowire.DecodeBool(x)), nil
	case tagInt:
		return value.NewInt(protowire.DecodeZigZag(x)), nil
	default: // tagDate
		return value.Date(protowire.DecodeZigZag(x)), nil
	}
}

func decodeBytesValue(num protowire.Number, payload []byte, loc *location) (value.Value, error) {
	switch num {
	case tagString:
		if !utf8.Valid(payload) {
			return nil, binaryError(loc, "string is not valid UTF-8")
		}
		return value.NewString(string(payload)), nil

	case tagBytes:
		return value.NewBytes(payload), nil

	case tagReference:
		var segments []string
		for len(payload) > 0 {
			seg, m, err := consumeStringField(payload, fieldSegment, loc)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			payload = payload[m:]
		}
		p, err := path.New(segments...)
		if err != nil {
			return nil, wrapBinaryError(loc, "invalid reference", err)
		}
		return value.NewReference(p), nil

	case tagGeoPoint:
		lat, m, err := consumeFixed64Field(payload, fieldLat, loc)
		if err != nil {
			return nil, err
		}
		lon, k, err := consumeFixed64Field(payload[m:], fieldLon, loc)
		if err != nil {
			return nil, err
		}
		if m+k != len(payload) {
			return nil, binaryError(loc, "trailing bytes in geo point")
		}
		if err := validateGeoPoint(lat, lon); err != nil {
			return nil, wrapBinaryError(loc, "invalid geo point", err)
		}
		return value.NewGeoPoint(lat, lon), nil

	case tagArray:
		if loc.depth >= value.MaxDepth {
			return nil, wrapBinaryError(loc, "invalid array", errTooDeep())
		}
		arr := make(value.Array, 0)
		for i := 0; len(payload) > 0; i++ {
			v, m, err := consumeValue(payload, loc.elem(i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
			payload = payload[m:]
		}
		return arr, nil

	default: // tagMap
		if loc.depth >= value.MaxDepth {
			return nil, wrapBinaryError(loc, "invalid map", errTooDeep())
		}
		return decodeMapEntries(payload, loc)
	}
}

func decodeMapEntries(payload []byte, loc *location) (value.Value, error) {
	var entries []value.Entry
	seen := make(map[string]bool)
	for len(payload) > 0 {
		entry, m, err := consumeBytesField(payload, fieldEntry, loc)
		if err != nil {
			return nil, err
		}
		payload = payload[m:]

		key, k, err := consumeStringField(entry, fieldEntryKey, loc)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, binaryError(loc, "duplicate map key %q", key)
		}
		seen[key] = true

		encoded, j, err := consumeBytesField(entry[k:], fieldEntryVal, loc)
		if err != nil {
			return nil, err
		}
		if k+j != len(entry) {
			return nil, binaryError(loc, "trailing bytes in entry %q", key)
		}

		elemLoc := loc.entry(key)
		v, used, err := consumeValue(encoded, elemLoc)
		if err != nil {
			return nil, err
		}
		if used != len(encoded) {
			return nil, binaryError(elemLoc, "trailing bytes in entry value")
		}
		entries = append(entries, value.E(key, v))
	}
	return value.NewMap(entries...), nil
}

func consumeBytesField(b []byte, want protowire.Number, loc *location) ([]byte, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return nil, 0, wrapBinaryError(loc, "reading tag", protowire.ParseError(n))
	}
	if num != want || typ != protowire.BytesType {
		return nil, 0, binaryError(loc, "unexpected field %d (wire type %d), want %d", num, typ, want)
	}
	payload, m := protowire.ConsumeBytes(b[n:])
	if m < 0 {
		return nil, 0, wrapBinaryError(loc, "reading length-delimited field", protowire.ParseError(m))
	}
	return payload, n + m, nil
}

func consumeStringField(b []byte, want protowire.Number, loc *location) (string, int, error) {
	payload, n, err := consumeBytesField(b, want, loc)
	if err != nil {
		return "", 0, err
	}
	if !utf8.Valid(payload) {
		return "", 0, binaryError(loc, "field %d is not valid UTF-8", want)
	}
	return string(payload), n, nil
}

func consumeFixed64Field(b []byte, want protowire.Number, loc *location) (float64, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return 0, 0, wrapBinaryError(loc, "reading tag", protowire.ParseError(n))
	}
	if num != want || typ != protowire.Fixed64Type {
		return 0, 0, binaryError(loc, "unexpected field %d (wire type %d), want %d", num, typ, want)
	}
	x, m := protowire.ConsumeFixed64(b[n:])
	if m < 0 {
		return 0, 0, wrapBinaryError(loc, "reading fixed64", protowire.ParseError(m))
	}
	return math.Float64frombits(x), n + m, nil
}
