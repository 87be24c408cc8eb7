package store

import (
	"fmt"

	"github.com/roach88/firedoc/internal/codec"
)

// storedRow is a Record in its persisted layout.
type storedRow struct {
	reference   []byte
	properties  []byte
	fingerprint string
}

// marshalRecord converts a Record to binary columns plus fingerprint.
func marshalRecord(rec Record) (storedRow, error) {
	ref, err := codec.EncodeBinary(rec.Reference)
	if err != nil {
		return storedRow{}, fmt.Errorf("%w: reference: %w", ErrUnencodable, err)
	}
	props, err := codec.EncodeBinary(rec.Properties)
	if err != nil {
		return storedRow{}, fmt.Errorf("%w: properties: %w", ErrUnencodable, err)
	}
	fp, err := codec.Fingerprint(rec.Properties)
	if err != nil {
		return storedRow{}, fmt.Errorf("%w: properties: %w", ErrUnencodable, err)
	}
	return storedRow{reference: ref, properties: props, fingerprint: fp}, nil
}

// unmarshalRecord decodes binary columns back into a Record.
func unmarshalRecord(ref, props []byte) (Record, error) {
	refVal, err := codec.DecodeBinary(ref)
	if err != nil {
		return Record{}, fmt.Errorf("unmarshal reference: %w", err)
	}
	propsVal, err := codec.DecodeBinary(props)
	if err != nil {
		return Record{}, fmt.Errorf("unmarshal properties: %w", err)
	}
	return Record{Reference: refVal, Properties: propsVal}, nil
}
