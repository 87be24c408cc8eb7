// Package codec converts values to and from their external forms.
//
// Two encodings are provided, each a bijection with the value domain:
//
// Text: a JSON-shaped form, one object per value:
//
//	{"type":"NUMBER","value":1}
//	{"type":"MAP","value":{"foo":{"type":"STRING","value":"bar"}}}
//
// Number kind survives the round trip: integers render without a fraction,
// doubles always carry a '.' or an exponent. Infinite doubles use the
// strings "Infinity" and "-Infinity". Bytes are lowercase hex, references
// are '/'-rooted paths, geo points are [lat, lon]. Map keys keep their
// insertion order.
//
// Binary: a self-describing protobuf-wire encoding. Each value is a single
// field whose number is the value's kind tag; containers nest as
// length-delimited messages. The binary form is the persisted layout.
//
// Malformed input of either kind fails with *DecodeError.
package codec
