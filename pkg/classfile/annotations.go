package classfile

import "fmt"

// Annotation is one annotation structure: a type descriptor index and its
// element-value pairs.
type Annotation struct {
	TypeIndex uint16
	Elements  []ElementValuePair
}

type ElementValuePair struct {
	NameIndex uint16
	Value     ElementValue
}

// ElementValue is a tagged union keyed by Tag:
//
//	B C D F I J S Z s  ConstValueIndex
//	e                  EnumTypeNameIndex, EnumConstNameIndex
//	c                  ClassInfoIndex
//	@                  Annotation
//	[                  Values
type ElementValue struct {
	Tag                byte
	ConstValueIndex    uint16
	EnumTypeNameIndex  uint16
	EnumConstNameIndex uint16
	ClassInfoIndex     uint16
	Annotation         *Annotation
	Values             []ElementValue
}

type AnnotationsAttribute struct {
	Visible     bool
	Annotations []Annotation
}

type ParameterAnnotationsAttribute struct {
	Visible    bool
	Parameters [][]Annotation
}

type AnnotationDefaultAttribute struct {
	Value ElementValue
}

func (*AnnotationsAttribute) attributeBody()          {}
func (*ParameterAnnotationsAttribute) attributeBody() {}
func (*AnnotationDefaultAttribute) attributeBody()    {}

// annotationReader carries the nesting budget: element values can nest
// arbitrarily through '@' and '[' and must not blow the stack. The budget
// is the decoder's max depth, counted from the annotation itself and not
// from the attribute table holding it.
type annotationReader struct {
	c        *Cursor
	depth    int
	maxDepth int
}

func newAnnotationReader(ctx *AttributeContext, c *Cursor) *annotationReader {
	return &annotationReader{c: c, maxDepth: ctx.dec.maxDepth}
}

func (r *annotationReader) enter() error {
	r.depth++
	if r.depth > r.maxDepth {
		return decodeErrorf(ErrUnsupportedNesting, r.c.Position(), "annotation depth %d exceeds limit %d", r.depth, r.maxDepth)
	}
	return nil
}

func (r *annotationReader) leave() { r.depth-- }

func (r *annotationReader) annotations() ([]Annotation, error) {
	n, err := r.c.ReadU2()
	if err != nil {
		return nil, err
	}
	out := make([]Annotation, n)
	for i := range out {
		if err := r.annotation(&out[i]); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return out, nil
}

func (r *annotationReader) annotation(a *Annotation) error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	var err error
	if a.TypeIndex, err = r.c.ReadU2(); err != nil {
		return err
	}
	n, err := r.c.ReadU2()
	if err != nil {
		return err
	}
	a.Elements = make([]ElementValuePair, n)
	for i := range a.Elements {
		if a.Elements[i].NameIndex, err = r.c.ReadU2(); err != nil {
			return err
		}
		if err := r.elementValue(&a.Elements[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *annotationReader) elementValue(v *ElementValue) error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	tagOffset := r.c.Position()
	tag, err := r.c.ReadU1()
	if err != nil {
		return err
	}
	v.Tag = tag
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		v.ConstValueIndex, err = r.c.ReadU2()
		return err
	case 'e':
		v.EnumTypeNameIndex, v.EnumConstNameIndex, err = readIndexPair(r.c)
		return err
	case 'c':
		v.ClassInfoIndex, err = r.c.ReadU2()
		return err
	case '@':
		v.Annotation = &Annotation{}
		return r.annotation(v.Annotation)
	case '[':
		n, err := r.c.ReadU2()
		if err != nil {
			return err
		}
		v.Values = make([]ElementValue, n)
		for i := range v.Values {
			if err := r.elementValue(&v.Values[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return decodeErrorf(ErrMalformedAttribute, tagOffset, "unknown element_value tag %q", tag)
	}
}

func parseAnnotations(visible bool) AttributeParser {
	return func(ctx *AttributeContext, c *Cursor) (AttributeBody, error) {
		anns, err := newAnnotationReader(ctx, c).annotations()
		if err != nil {
			return nil, err
		}
		return &AnnotationsAttribute{Visible: visible, Annotations: anns}, nil
	}
}

func parseParameterAnnotations(visible bool) AttributeParser {
	return func(ctx *AttributeContext, c *Cursor) (AttributeBody, error) {
		n, err := c.ReadU1()
		if err != nil {
			return nil, err
		}
		r := newAnnotationReader(ctx, c)
		params := make([][]Annotation, n)
		for i := range params {
			if params[i], err = r.annotations(); err != nil {
				return nil, fmt.Errorf("parameter %d: %w", i, err)
			}
		}
		return &ParameterAnnotationsAttribute{Visible: visible, Parameters: params}, nil
	}
}

func parseAnnotationDefault(ctx *AttributeContext, c *Cursor) (AttributeBody, error) {
	attr := &AnnotationDefaultAttribute{}
	if err := newAnnotationReader(ctx, c).elementValue(&attr.Value); err != nil {
		return nil, err
	}
	return attr, nil
}
