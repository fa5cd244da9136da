// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// sizeofFloat is the size of one vertex component in bytes.
const sizeofFloat = 4

// Attr declares one float32 vertex attribute.
type Attr struct {
	// Name is the shader input the attribute feeds.
	Name string
	// Components is the number of floats, 1 to 4.
	Components int
}

// Attribute is an attribute placed within an interleaved vertex.
type Attribute struct {
	Name       string
	Components int
	// Offset is the byte offset within a vertex.
	Offset int
	Format gputypes.VertexFormat
}

// Layout is a packed interleaved vertex layout.
type Layout struct {
	// Stride is the size of one vertex in bytes.
	Stride     int
	Attributes []Attribute
}

// NewLayout packs attrs in order with no padding. It panics when an
// attribute has fewer than 1 or more than 4 components.
func NewLayout(attrs ...Attr) Layout {
	var l Layout
	for _, a := range attrs {
		f, ok := vertexFormat(a.Components)
		if !ok {
			panic(fmt.Sprintf("mesh: attribute %q has %d components", a.Name, a.Components))
		}
		l.Attributes = append(l.Attributes, Attribute{
			Name:       a.Name,
			Components: a.Components,
			Offset:     l.Stride,
			Format:     f,
		})
		l.Stride += a.Components * sizeofFloat
	}
	return l
}

// Floats returns the number of floats per vertex.
func (l Layout) Floats() int { return l.Stride / sizeofFloat }

// Attribute returns the attribute called name.
func (l Layout) Attribute(name string) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func vertexFormat(components int) (gputypes.VertexFormat, bool) {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32, true
	case 2:
		return gputypes.VertexFormatFloat32x2, true
	case 3:
		return gputypes.VertexFormatFloat32x3, true
	case 4:
		return gputypes.VertexFormatFloat32x4, true
	}
	return 0, false
}
