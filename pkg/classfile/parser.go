package classfile

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxDepth sets the attribute nesting limit. Values below 1 keep the
// default. Annotation element values get the same limit as a separate
// budget, so they are not charged for the attribute tables around them.
func WithMaxDepth(depth int) Option {
	return func(d *Decoder) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// WithAttributeRegistry replaces the built-in attribute parsers.
func WithAttributeRegistry(r *AttributeRegistry) Option {
	return func(d *Decoder) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithLogger sets the logger used for diagnostics while decoding.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) {
		d.logger = l
	}
}

// Decoder turns class file bytes into a ClassFile. It holds no per-input
// state, so one Decoder may serve concurrent Decode calls as long as its
// registry is not modified meanwhile.
type Decoder struct {
	maxDepth int
	registry *AttributeRegistry
	logger   zerolog.Logger
}

// NewDecoder returns a Decoder with the built-in attribute parsers.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxDepth: DefaultMaxDepth,
		registry: DefaultAttributeRegistry(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse decodes a complete class file held in data.
func Parse(data []byte, opts ...Option) (*ClassFile, error) {
	return NewDecoder(opts...).Decode(data)
}

// ParseReader reads r to the end and decodes it.
func ParseReader(r io.Reader, opts ...Option) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading class data: %w", err)
	}
	return Parse(data, opts...)
}

// Decode decodes a class file. On error no partial ClassFile is returned.
func (d *Decoder) Decode(data []byte) (*ClassFile, error) {
	c := NewCursor(data)
	cf := &ClassFile{}
	var err error

	// Magic number
	if cf.Magic, err = c.ReadU4(); err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if cf.Magic != classMagic {
		return nil, decodeErrorf(ErrBadMagic, 0, "got 0x%08X, want 0xCAFEBABE", cf.Magic)
	}

	// Version
	if cf.MinorVersion, err = c.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if cf.MajorVersion, err = c.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	// Constant pool
	cpCount, err := c.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	if cf.ConstantPool, err = parseConstantPool(c, cpCount); err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	d.logger.Debug().
		Uint16("major", cf.MajorVersion).
		Uint16("minor", cf.MinorVersion).
		Int("pool_slots", cf.ConstantPool.Len()).
		Msg("decoded constant pool")

	// Access flags, this_class, super_class
	flags, err := c.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	cf.AccessFlags = AccessFlags(flags)
	if cf.ThisClass, err = c.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if cf.SuperClass, err = c.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}

	// Interfaces
	if cf.Interfaces, err = readU2List(c); err != nil {
		return nil, fmt.Errorf("reading interfaces: %w", err)
	}

	// Fields
	fields, err := d.readMembers(c, cf.ConstantPool, "field")
	if err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}
	cf.Fields = make([]FieldInfo, len(fields))
	for i, m := range fields {
		cf.Fields[i] = FieldInfo{MemberInfo: m}
	}

	// Methods
	methods, err := d.readMembers(c, cf.ConstantPool, "method")
	if err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}
	cf.Methods = make([]MethodInfo, len(methods))
	for i, m := range methods {
		cf.Methods[i] = MethodInfo{MemberInfo: m}
	}

	// Class-level attributes
	if cf.Attributes, err = d.readAttributes(c, cf.ConstantPool, 0); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	if c.Remaining() > 0 {
		d.logger.Warn().
			Int("offset", c.Position()).
			Int("bytes", c.Remaining()).
			Msg("trailing bytes after class attributes")
	}
	return cf, nil
}

// readMembers decodes a u2-counted field or method table.
func (d *Decoder) readMembers(c *Cursor, pool ConstantPool, kind string) ([]MemberInfo, error) {
	count, err := c.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading %ss count: %w", kind, err)
	}
	members := make([]MemberInfo, count)
	for i := range members {
		m := &members[i]
		flags, err := c.ReadU2()
		if err != nil {
			return nil, fmt.Errorf("reading %s %d access flags: %w", kind, i, err)
		}
		m.AccessFlags = AccessFlags(flags)
		if m.NameIndex, err = c.ReadU2(); err != nil {
			return nil, fmt.Errorf("reading %s %d name index: %w", kind, i, err)
		}
		if m.DescriptorIndex, err = c.ReadU2(); err != nil {
			return nil, fmt.Errorf("reading %s %d descriptor index: %w", kind, i, err)
		}
		if m.Attributes, err = d.readAttributes(c, pool, 0); err != nil {
			return nil, fmt.Errorf("parsing %s %d attributes: %w", kind, i, err)
		}
	}
	return members, nil
}
