// Package schema parses the XML stream description embedded in a file header.
package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StreamKind is the payload type of a stream.
type StreamKind uint8

// Stream kinds.
const (
	KindUnknown StreamKind = iota
	KindEvents
	KindFrame
	KindImu
	KindTrigger
)

func (k StreamKind) String() string {
	switch k {
	case KindEvents:
		return "events"
	case KindFrame:
		return "frame"
	case KindImu:
		return "imu"
	case KindTrigger:
		return "trigger"
	}
	return "unknown"
}

// Type identifiers as they appear in descriptions and payload buffers.
const (
	IdentifierEvents  = "EVTS"
	IdentifierFrame   = "FRME"
	IdentifierImu     = "IMUS"
	IdentifierTrigger = "TRIG"
)

// KindOf maps a type identifier to a stream kind.
func KindOf(typeIdentifier string) StreamKind {
	switch typeIdentifier {
	case IdentifierEvents:
		return KindEvents
	case IdentifierFrame:
		return KindFrame
	case IdentifierImu:
		return KindImu
	case IdentifierTrigger:
		return KindTrigger
	}
	return KindUnknown
}

// Descriptor describes a single stream in the container.
// Width and Height are only set for event and frame streams.
// Attributes carries the raw attributes of streams with an
// unrecognized type identifier.
type Descriptor struct {
	ID             int32
	Kind           StreamKind
	TypeIdentifier string
	Width          uint16
	Height         uint16
	Attributes     map[string]string
}

// Description parse errors.
var (
	ErrEmptyDescription = errors.New("empty description")
	ErrMalformed        = errors.New("malformed description")
	ErrNoStreams        = errors.New("no streams declared")
	ErrDuplicateStream  = errors.New("duplicate stream id")
	ErrMissingAttribute = errors.New("missing attribute")
	ErrInvalidAttribute = errors.New("invalid attribute")
)

type xmlAttr struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlNode struct {
	Name  string    `xml:"name,attr"`
	Attrs []xmlAttr `xml:"attr"`
	Nodes []xmlNode `xml:"node"`
}

type xmlRoot struct {
	XMLName xml.Name  `xml:"dv"`
	Nodes   []xmlNode `xml:"node"`
}

// Parse parses a stream description into descriptors in document order.
// A stream node without a name attribute gets an implicit id equal to
// its position among the stream nodes.
func Parse(description string) ([]Descriptor, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	var root xmlRoot
	if err := xml.Unmarshal([]byte(description), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	outInfo, exist := findNode(root.Nodes, "outInfo")
	if !exist {
		return nil, fmt.Errorf("%w: no outInfo node", ErrMalformed)
	}

	streams := make([]Descriptor, 0, len(outInfo.Nodes))
	seen := make(map[int32]bool, len(outInfo.Nodes))
	for i, node := range outInfo.Nodes {
		stream, err := parseStream(node, int32(i))
		if err != nil {
			return nil, err
		}
		if seen[stream.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateStream, stream.ID)
		}
		seen[stream.ID] = true
		streams = append(streams, stream)
	}
	if len(streams) == 0 {
		return nil, ErrNoStreams
	}

	return streams, nil
}

func parseStream(node xmlNode, implicitID int32) (Descriptor, error) {
	id := implicitID
	if node.Name != "" {
		parsed, err := strconv.ParseInt(node.Name, 10, 32)
		if err != nil {
			return Descriptor{}, fmt.Errorf(
				"%w: stream id %q", ErrInvalidAttribute, node.Name)
		}
		id = int32(parsed)
	}

	typeIdentifier, exist := findAttr(node.Attrs, "typeIdentifier")
	if !exist {
		return Descriptor{}, fmt.Errorf(
			"%w: typeIdentifier on stream %d", ErrMissingAttribute, id)
	}

	stream := Descriptor{
		ID:             id,
		Kind:           KindOf(typeIdentifier),
		TypeIdentifier: typeIdentifier,
	}

	switch stream.Kind {
	case KindEvents, KindFrame:
		info, exist := findNode(node.Nodes, "info")
		if !exist {
			return Descriptor{}, fmt.Errorf(
				"%w: stream %d has no info node", ErrMalformed, id)
		}
		var err error
		stream.Width, err = geometryAttr(info.Attrs, "sizeX", id)
		if err != nil {
			return Descriptor{}, err
		}
		stream.Height, err = geometryAttr(info.Attrs, "sizeY", id)
		if err != nil {
			return Descriptor{}, err
		}

	case KindUnknown:
		stream.Attributes = make(map[string]string, len(node.Attrs))
		for _, attr := range node.Attrs {
			stream.Attributes[attr.Key] = strings.TrimSpace(attr.Value)
		}
	}

	return stream, nil
}

func geometryAttr(attrs []xmlAttr, key string, streamID int32) (uint16, error) {
	value, exist := findAttr(attrs, key)
	if !exist {
		return 0, fmt.Errorf(
			"%w: %v on stream %d", ErrMissingAttribute, key, streamID)
	}
	parsed, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return 0, fmt.Errorf(
			"%w: %v=%q on stream %d", ErrInvalidAttribute, key, value, streamID)
	}
	return uint16(parsed), nil
}

func findAttr(attrs []xmlAttr, key string) (string, bool) {
	for _, attr := range attrs {
		if attr.Key == key {
			return strings.TrimSpace(attr.Value), true
		}
	}
	return "", false
}

func findNode(nodes []xmlNode, name string) (xmlNode, bool) {
	for _, node := range nodes {
		if node.Name == name {
			return node, true
		}
	}
	return xmlNode{}, false
}
