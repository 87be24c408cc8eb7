package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/value"
)

const (
	infinity    = "Infinity"
	negInfinity = "-Infinity"
)

// EncodeText renders v in the canonical textual form.
// A nil Value encodes as NULL. Strings and keys must be valid UTF-8.
func EncodeText(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeText(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustEncodeText is like EncodeText but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEncodeText(v value.Value) string {
	data, err := EncodeText(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// encodeText writes v, which sits inside depth containers.
func encodeText(buf *bytes.Buffer, v value.Value, depth int) error {
	buf.WriteString(`{"type":"`)
	buf.WriteString(value.TypeOf(v).String())
	buf.WriteString(`","value":`)

	switch val := v.(type) {
	case nil, value.Null, value.NaN:
		buf.WriteString("null")
	case value.Boolean:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case value.Number:
		buf.WriteString(formatNumber(val))
	case value.Date:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case value.String:
		if err := writeString(buf, string(val)); err != nil {
			return err
		}
	case value.Bytes:
		buf.WriteByte('"')
		buf.WriteString(hex.EncodeToString(val))
		buf.WriteByte('"')
	case value.Reference:
		if err := writeString(buf, val.Path.String()); err != nil {
			return err
		}
	case value.GeoPoint:
		if err := validateGeoPoint(val.Lat, val.Lon); err != nil {
			return err
		}
		buf.WriteByte('[')
		buf.WriteString(formatDouble(val.Lat))
		buf.WriteByte(',')
		buf.WriteString(formatDouble(val.Lon))
		buf.WriteByte(']')
	case value.Array:
		if depth >= value.MaxDepth {
			return errTooDeep()
		}
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeText(buf, elem, depth+1); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case value.Map:
		if depth >= value.MaxDepth {
			return errTooDeep()
		}
		buf.WriteByte('{')
		for i, e := range val.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, e.Key); err != nil {
				return fmt.Errorf("key %q: %w", e.Key, err)
			}
			buf.WriteByte(':')
			if err := encodeText(buf, e.Value, depth+1); err != nil {
				return fmt.Errorf("value for key %q: %w", e.Key, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}

	buf.WriteByte('}')
	return nil
}

// writeString writes a JSON string with HTML escaping disabled.
func writeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("invalid UTF-8 in string %q", s)
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func formatNumber(n value.Number) string {
	if n.IsInt() {
		return strconv.FormatInt(n.Int(), 10)
	}
	f := n.Float()
	switch {
	case math.IsInf(f, 1):
		return `"` + infinity + `"`
	case math.IsInf(f, -1):
		return `"` + negInfinity + `"`
	}
	return formatDouble(f)
}

// formatDouble renders a finite float so that it always reads back as a
// double: the output carries a '.' or an exponent.
func formatDouble(f float64) string {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// DecodeText parses one value in textual form. Trailing data is rejected.
func DecodeText(data []byte) (value.Value, error) {
	return decodeTextAt(data, rootLocation())
}

func decodeTextAt(data []byte, loc *location) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeTagged(dec, loc)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, textError(loc, "unexpected trailing data")
	}
	return v, nil
}

// decodeTagged reads a {"type":..., "value":...} object. The two fields may
// appear in either order; any other field is rejected.
func decodeTagged(dec *json.Decoder, loc *location) (value.Value, error) {
	if err := expectDelim(dec, '{', loc); err != nil {
		return nil, err
	}

	var (
		typeName string
		payload  json.RawMessage
		haveType bool
		haveVal  bool
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrapTextError(loc, "reading field name", err)
		}
		key, _ := tok.(string)
		switch key {
		case "type":
			if haveType {
				return nil, textError(loc, "duplicate field \"type\"")
			}
			tok, err := dec.Token()
			if err != nil {
				return nil, wrapTextError(loc, "reading type", err)
			}
			name, ok := tok.(string)
			if !ok {
				return nil, textError(loc, "field \"type\" must be a string, got %v", tok)
			}
			typeName, haveType = name, true
		case "value":
			if haveVal {
				return nil, textError(loc, "duplicate field \"value\"")
			}
			if err := dec.Decode(&payload); err != nil {
				return nil, wrapTextError(loc, "reading value", err)
			}
			haveVal = true
		default:
			return nil, textError(loc, "unexpected field %q", key)
		}
	}
	if err := expectDelim(dec, '}', loc); err != nil {
		return nil, err
	}

	if !haveType {
		return nil, textError(loc, "missing field \"type\"")
	}
	if !haveVal {
		return nil, textError(loc, "missing field \"value\"")
	}

	typ, ok := value.ParseType(typeName)
	if !ok {
		return nil, textError(loc, "unknown type %q", typeName)
	}
	return decodePayload(typ, payload, loc.field("value"))
}

func expectDelim(dec *json.Decoder, want json.Delim, loc *location) error {
	tok, err := dec.Token()
	if err != nil {
		return wrapTextError(loc, fmt.Sprintf("expected %q", want), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return textError(loc, "expected %q, got %v", want, tok)
	}
	return nil
}

func decodePayload(typ value.Type, raw json.RawMessage, loc *location) (value.Value, error) {
	switch typ {
	case value.TypeArray:
		return decodeArrayPayload(raw, loc)
	case value.TypeMap:
		return decodeMapPayload(raw, loc)
	}

	scalar, err := decodeScalar(raw)
	if err != nil {
		return nil, wrapTextError(loc, "malformed payload", err)
	}

	switch typ {
	case value.TypeNull, value.TypeNaN:
		if scalar != nil {
			return nil, textError(loc, "%s payload must be null, got %s", typ, raw)
		}
		if typ == value.TypeNull {
			return value.Null{}, nil
		}
		return value.NaN{}, nil

	case value.TypeBoolean:
		b, ok := scalar.(bool)
		if !ok {
			return nil, textError(loc, "expected a boolean, got %s", raw)
		}
		return value.Boolean(b), nil

	case value.TypeNumber:
		return parseNumber(scalar, raw, loc)

	case value.TypeDate:
		num, ok := scalar.(json.Number)
		if !ok {
			return nil, textError(loc, "expected integer microseconds, got %s", raw)
		}
		micros, err := strconv.ParseInt(string(num), 10, 64)
		if err != nil {
			return nil, wrapTextError(loc, "date must be integer microseconds", err)
		}
		return value.Date(micros), nil

	case value.TypeString:
		s, ok := scalar.(string)
		if !ok {
			return nil, textError(loc, "expected a string, got %s", raw)
		}
		return value.NewString(s), nil

	case value.TypeBytes:
		s, ok := scalar.(string)
		if !ok {
			return nil, textError(loc, "expected a hex string, got %s", raw)
		}
		if strings.ToLower(s) != s {
			return nil, textError(loc, "hex payload must be lowercase")
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, wrapTextError(loc, "invalid hex payload", err)
		}
		return value.NewBytes(b), nil

	case value.TypeReference:
		s, ok := scalar.(string)
		if !ok {
			return nil, textError(loc, "expected a path string, got %s", raw)
		}
		if !strings.HasPrefix(s, path.Separator) {
			return nil, textError(loc, "reference %q must start with %q", s, path.Separator)
		}
		p, err := path.Parse(s)
		if err != nil {
			return nil, wrapTextError(loc, "invalid reference", err)
		}
		return value.NewReference(p), nil

	case value.TypeGeoPoint:
		return parseGeoPoint(scalar, raw, loc)

	default:
		return nil, textError(loc, "unsupported type %s", typ)
	}
}

// decodeScalar decodes raw JSON, keeping numbers as json.Number.
func decodeScalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseNumber(scalar any, raw json.RawMessage, loc *location) (value.Value, error) {
	switch num := scalar.(type) {
	case string:
		switch num {
		case infinity:
			return value.NewDouble(math.Inf(1)), nil
		case negInfinity:
			return value.NewDouble(math.Inf(-1)), nil
		}
		return nil, textError(loc, "unknown number literal %q", num)
	case json.Number:
		s := string(num)
		if strings.ContainsAny(s, ".eE") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, wrapTextError(loc, "double out of range", err)
			}
			return value.NewDouble(f), nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, wrapTextError(loc, "integer out of int64 range", err)
		}
		return value.NewInt(i), nil
	default:
		return nil, textError(loc, "expected a number, got %s", raw)
	}
}

func parseGeoPoint(scalar any, raw json.RawMessage, loc *location) (value.Value, error) {
	pair, ok := scalar.([]any)
	if !ok || len(pair) != 2 {
		return nil, textError(loc, "expected [lat, lon], got %s", raw)
	}
	coords := make([]float64, 2)
	for i, c := range pair {
		num, ok := c.(json.Number)
		if !ok {
			return nil, textError(loc, "coordinate %d is not a number", i)
		}
		f, err := num.Float64()
		if err != nil {
			return nil, wrapTextError(loc, fmt.Sprintf("coordinate %d", i), err)
		}
		coords[i] = f
	}
	if err := validateGeoPoint(coords[0], coords[1]); err != nil {
		return nil, wrapTextError(loc, "invalid geo point", err)
	}
	return value.NewGeoPoint(coords[0], coords[1]), nil
}

func validateGeoPoint(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v outside [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v outside [-180, 180]", lon)
	}
	return nil
}

func decodeArrayPayload(raw json.RawMessage, loc *location) (value.Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, textError(loc, "expected an array, got %s", raw)
	}
	if loc.depth >= value.MaxDepth {
		return nil, wrapTextError(loc, "invalid array", errTooDeep())
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, wrapTextError(loc, "malformed array", err)
	}

	arr := make(value.Array, 0, len(elems))
	for i, elem := range elems {
		v, err := decodeTextAt(elem, loc.elem(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// decodeMapPayload walks the object token by token so key order survives.
func decodeMapPayload(raw json.RawMessage, loc *location) (value.Value, error) {
	if loc.depth >= value.MaxDepth {
		return nil, wrapTextError(loc, "invalid map", errTooDeep())
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := expectDelim(dec, '{', loc); err != nil {
		return nil, err
	}

	var entries []value.Entry
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrapTextError(loc, "reading map key", err)
		}
		key, _ := tok.(string)
		if seen[key] {
			return nil, textError(loc, "duplicate map key %q", key)
		}
		seen[key] = true

		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, wrapTextError(loc, fmt.Sprintf("reading value for key %q", key), err)
		}
		v, err := decodeTextAt(elem, loc.entry(key))
		if err != nil {
			return nil, err
		}
		entries = append(entries, value.E(key, v))
	}
	if err := expectDelim(dec, '}', loc); err != nil {
		return nil, err
	}
	return value.NewMap(entries...), nil
}
