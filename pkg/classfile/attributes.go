package classfile

import (
	"fmt"
	"sort"
)

// DefaultMaxDepth bounds how deeply attribute tables may nest (Code inside
// Code, Record components, ...).
const DefaultMaxDepth = 64

// AttributeInfo is one entry of an attribute table. Data is always the
// exact payload as declared by Length; Body is the structured view of it,
// or *OpaqueAttribute when the name is not recognised.
type AttributeInfo struct {
	NameIndex uint16
	Name      string
	Length    uint32
	Data      []byte
	Body      AttributeBody
}

// AttributeBody is implemented by every structured attribute payload.
type AttributeBody interface {
	attributeBody()
}

// OpaqueAttribute is a payload kept as raw bytes, either because its name
// is unknown or because its layout is deliberately not interpreted.
type OpaqueAttribute struct {
	Data []byte
}

func (*OpaqueAttribute) attributeBody() {}

// AttributeParser decodes a payload. c covers exactly the payload bytes;
// the parser must consume all of them.
type AttributeParser func(ctx *AttributeContext, c *Cursor) (AttributeBody, error)

// AttributeContext is handed to parsers so they can reach the pool and
// decode nested attribute tables.
type AttributeContext struct {
	Pool  ConstantPool
	Depth int

	dec *Decoder
}

// ReadAttributes decodes a u2-counted attribute table one level deeper
// than the attribute currently being parsed.
func (ctx *AttributeContext) ReadAttributes(c *Cursor) ([]AttributeInfo, error) {
	return ctx.dec.readAttributes(c, ctx.Pool, ctx.Depth+1)
}

// AttributeRegistry maps attribute names to parsers. It is not safe for
// concurrent mutation; build it before decoding starts.
type AttributeRegistry struct {
	parsers map[string]AttributeParser
}

// NewAttributeRegistry returns an empty registry: every attribute decodes
// as opaque.
func NewAttributeRegistry() *AttributeRegistry {
	return &AttributeRegistry{parsers: make(map[string]AttributeParser)}
}

// DefaultAttributeRegistry returns a new registry holding the built-in
// parsers. Callers may add to it without affecting other decoders.
func DefaultAttributeRegistry() *AttributeRegistry {
	r := NewAttributeRegistry()
	for name, p := range builtinAttributes {
		r.parsers[name] = p
	}
	return r
}

// Register installs p for name, replacing any previous parser.
func (r *AttributeRegistry) Register(name string, p AttributeParser) {
	r.parsers[name] = p
}

// Unregister removes the parser for name so it decodes as opaque.
func (r *AttributeRegistry) Unregister(name string) {
	delete(r.parsers, name)
}

// Lookup returns the parser for name.
func (r *AttributeRegistry) Lookup(name string) (AttributeParser, bool) {
	p, ok := r.parsers[name]
	return p, ok
}

// Names returns the registered attribute names in sorted order.
func (r *AttributeRegistry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Decoder) readAttributes(c *Cursor, pool ConstantPool, depth int) ([]AttributeInfo, error) {
	if depth > d.maxDepth {
		return nil, decodeErrorf(ErrUnsupportedNesting, c.Position(), "depth %d exceeds limit %d", depth, d.maxDepth)
	}
	count, err := c.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading attributes count: %w", err)
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		if err := d.readAttribute(c, pool, depth, &attrs[i]); err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
	}
	return attrs, nil
}

func (d *Decoder) readAttribute(c *Cursor, pool ConstantPool, depth int, attr *AttributeInfo) error {
	var err error
	if attr.NameIndex, err = c.ReadU2(); err != nil {
		return fmt.Errorf("reading name index: %w", err)
	}
	if attr.Length, err = c.ReadU4(); err != nil {
		return fmt.Errorf("reading length: %w", err)
	}
	payload, err := c.ReadSub(int(attr.Length))
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}
	attr.Data = payload.data

	name, ok := pool.lookupUtf8(attr.NameIndex)
	attr.Name = name
	parser, known := d.registry.Lookup(name)
	if !ok || !known {
		attr.Body = &OpaqueAttribute{Data: attr.Data}
		d.logger.Debug().
			Uint16("name_index", attr.NameIndex).
			Str("name", name).
			Uint32("length", attr.Length).
			Int("offset", payload.base).
			Int("depth", depth).
			Msg("keeping attribute opaque")
		return nil
	}

	ctx := &AttributeContext{Pool: pool, Depth: depth, dec: d}
	body, err := parser(ctx, payload)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	if payload.Remaining() != 0 {
		return decodeErrorf(ErrMalformedAttribute, payload.Position(), "%s declares %d bytes but its contents end after %d",
			name, attr.Length, int(attr.Length)-payload.Remaining())
	}
	attr.Body = body
	return nil
}

// FindAttribute returns the first attribute named name, or nil.
func FindAttribute(attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}
