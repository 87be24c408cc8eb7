package fixture

import (
	"bytes"
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/firedoc/internal/codec"
)

// ParseCUE parses a CUE fixture. The file must evaluate to a concrete
// struct with a documents list; CUE definitions and comprehensions may be
// used to build it.
func ParseCUE(source string, data []byte) (*Fixture, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(source))
	if err := v.Err(); err != nil {
		return nil, cueError(source, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(source, err)
	}

	fx := &Fixture{Source: source}
	docsVal := v.LookupPath(cue.ParsePath("documents"))
	if !docsVal.Exists() {
		return fx, nil
	}

	iter, err := docsVal.List()
	if err != nil {
		return nil, &Error{Source: source, Line: docsVal.Pos().Line(), Message: "documents must be a list", Err: err}
	}
	for iter.Next() {
		doc, err := documentFromCUE(source, iter.Value())
		if err != nil {
			return nil, err
		}
		fx.Documents = append(fx.Documents, doc)
	}
	return fx, nil
}

func documentFromCUE(source string, v cue.Value) (Document, error) {
	refVal := v.LookupPath(cue.ParsePath("reference"))
	if !refVal.Exists() {
		return Document{}, &Error{Source: source, Line: v.Pos().Line(), Message: "document is missing reference"}
	}
	text, err := refVal.String()
	if err != nil {
		return Document{}, &Error{Source: source, Line: refVal.Pos().Line(), Message: "reference must be a string", Err: err}
	}
	ref, err := parseReference(text)
	if err != nil {
		return Document{}, &Error{Source: source, Line: refVal.Pos().Line(), Message: "invalid reference", Err: err}
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return Document{}, &Error{Source: source, Line: v.Pos().Line(), Message: "document is missing properties"}
	}

	var buf bytes.Buffer
	if err := writeCUEJSON(&buf, propsVal); err != nil {
		return Document{}, &Error{Source: source, Line: propsVal.Pos().Line(), Message: "invalid properties", Err: err}
	}
	props, err := codec.DecodeText(buf.Bytes())
	if err != nil {
		return Document{}, &Error{Source: source, Line: propsVal.Pos().Line(), Message: "invalid properties", Err: err}
	}

	return Document{Reference: ref, Properties: props}, nil
}

// writeCUEJSON renders a concrete CUE value as JSON text in field
// declaration order. Ints and floats stay distinct.
func writeCUEJSON(buf *bytes.Buffer, v cue.Value) error {
	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return err
		}
		buf.WriteByte('{')
		first := true
		for iter.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, iter.Selector().Unquoted())
			buf.WriteByte(':')
			if err := writeCUEJSON(buf, iter.Value()); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return err
		}
		buf.WriteByte('[')
		first := true
		for iter.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeCUEJSON(buf, iter.Value()); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case cue.NullKind:
		buf.WriteString("null")

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))

	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return err
		}
		buf.WriteString(strconv.FormatInt(n, 10))

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		buf.WriteString(formatFloat(f))

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return err
		}
		writeJSONString(buf, s)

	default:
		return fmt.Errorf("unsupported CUE kind %v", v.Kind())
	}
	return nil
}

// cueError keeps the first CUE error and its position.
func cueError(source string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Source: source, Message: "invalid CUE", Err: err}
	}
	first := errs[0]
	line := 0
	if positions := errors.Positions(first); len(positions) > 0 {
		line = positions[0].Line()
	}
	return &Error{Source: source, Line: line, Message: first.Error()}
}
