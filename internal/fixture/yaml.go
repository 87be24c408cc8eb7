package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/value"
)

// ParseYAML parses a YAML fixture. source names the input in errors.
func ParseYAML(source string, data []byte) (*Fixture, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &Error{Source: source, Message: "invalid YAML", Err: err}
	}
	if root.Kind == 0 {
		return &Fixture{Source: source}, nil
	}

	top := resolve(&root)
	if top.Kind == yaml.DocumentNode && len(top.Content) == 1 {
		top = resolve(top.Content[0])
	}
	if top.Kind != yaml.MappingNode {
		return nil, &Error{Source: source, Line: top.Line, Message: "fixture must be a mapping with a documents key"}
	}

	fx := &Fixture{Source: source}
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], resolve(top.Content[i+1])
		if key.Value != "documents" {
			return nil, &Error{Source: source, Line: key.Line, Message: fmt.Sprintf("unknown fixture key %q", key.Value)}
		}
		docs, err := DocumentsFromYAML(source, val)
		if err != nil {
			return nil, err
		}
		fx.Documents = docs
	}
	return fx, nil
}

// DocumentsFromYAML converts a sequence node of {reference, properties}
// entries. It lets other YAML formats embed a fixture inline.
func DocumentsFromYAML(source string, node *yaml.Node) ([]Document, error) {
	node = resolve(node)
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, &Error{Source: source, Line: node.Line, Message: "documents must be a list"}
	}

	docs := make([]Document, 0, len(node.Content))
	for _, item := range node.Content {
		doc, err := documentFromYAML(source, resolve(item))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func documentFromYAML(source string, node *yaml.Node) (Document, error) {
	if node.Kind != yaml.MappingNode {
		return Document{}, &Error{Source: source, Line: node.Line, Message: "document entry must be a mapping"}
	}

	var refNode, propsNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolve(node.Content[i+1])
		switch key.Value {
		case "reference":
			refNode = val
		case "properties":
			propsNode = val
		default:
			return Document{}, &Error{Source: source, Line: key.Line, Message: fmt.Sprintf("unknown document key %q", key.Value)}
		}
	}
	if refNode == nil {
		return Document{}, &Error{Source: source, Line: node.Line, Message: "document is missing reference"}
	}
	if propsNode == nil {
		return Document{}, &Error{Source: source, Line: node.Line, Message: "document is missing properties"}
	}
	if refNode.Kind != yaml.ScalarNode {
		return Document{}, &Error{Source: source, Line: refNode.Line, Message: "reference must be a string"}
	}

	ref, err := parseReference(refNode.Value)
	if err != nil {
		return Document{}, &Error{Source: source, Line: refNode.Line, Message: "invalid reference", Err: err}
	}

	props, err := ValueFromYAML(propsNode)
	if err != nil {
		return Document{}, &Error{Source: source, Line: propsNode.Line, Message: "invalid properties", Err: err}
	}

	return Document{Reference: ref, Properties: props}, nil
}

// ValueFromYAML decodes a node written in the textual value encoding,
// such as {type: NUMBER, value: 1}.
func ValueFromYAML(node *yaml.Node) (value.Value, error) {
	var buf bytes.Buffer
	if err := writeYAMLJSON(&buf, node); err != nil {
		return nil, err
	}
	return codec.DecodeText(buf.Bytes())
}

// writeYAMLJSON renders node as JSON text, keeping mapping order.
func writeYAMLJSON(buf *bytes.Buffer, node *yaml.Node) error {
	node = resolve(node)
	switch node.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key := resolve(node.Content[i])
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			writeJSONString(buf, key.Value)
			buf.WriteByte(':')
			if err := writeYAMLJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return writeYAMLScalar(buf, node)

	default:
		return fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func writeYAMLScalar(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		buf.WriteString(strconv.FormatInt(n, 10))
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("line %d: write %q as a string", node.Line, node.Value)
		}
		buf.WriteString(formatFloat(f))
	case "!!str":
		writeJSONString(buf, node.Value)
	default:
		return fmt.Errorf("line %d: unsupported tag %s", node.Line, node.ShortTag())
	}
	return nil
}

// formatFloat keeps a decimal point so the value decodes as a double.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// Marshal of a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
