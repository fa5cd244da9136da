// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota
	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// BufferKind selects the binding point a buffer is created for.
type BufferKind uint8

const (
	// VertexBuffer holds interleaved float32 vertex data.
	VertexBuffer BufferKind = iota
	// IndexBuffer holds uint16 triangle indices.
	IndexBuffer
)

// ClearMask selects the attachments cleared by Context.Clear.
type ClearMask uint8

const (
	// ClearColor clears the color attachment.
	ClearColor ClearMask = 1 << iota
	// ClearDepth clears the depth attachment.
	ClearDepth
)

// UniformKind classifies a resolved uniform.
type UniformKind uint8

const (
	// UniformValue is a plain value (scalar, vector or matrix) in a uniform buffer.
	UniformValue UniformKind = iota
	// UniformTexture is a sampled texture with its paired sampler.
	UniformTexture
)

// Uniform is a resolved uniform slot within a linked program.
type Uniform struct {
	// Name is the WGSL identifier of the binding.
	Name string
	// Kind tells values and textures apart.
	Kind UniformKind
	// Group and Binding locate the resource in the bind group layout.
	Group, Binding int
	// Type is the declared WGSL type (e.g. "mat4x4<f32>").
	Type string
}

// VertexAttribute describes how one attribute slot reads the bound
// vertex buffer.
type VertexAttribute struct {
	Format gputypes.VertexFormat
	// Stride is the byte distance between consecutive vertices.
	Stride int
	// Offset is the byte offset of the attribute within a vertex.
	Offset int
}

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width and Height are the texture size in pixels.
	Width, Height int

	// Format is the texture pixel format. Color textures use
	// TextureFormatRGBA8Unorm, depth attachments use
	// TextureFormatDepth24PlusStencil8.
	Format gputypes.TextureFormat
}

// IsDepthFormat reports whether f is a depth format.
func IsDepthFormat(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatDepth24PlusStencil8
}

// Shader is a compiled shader stage.
type Shader interface {
	Stage() Stage
	Label() string
	Destroy()
}

// Program is a linked vertex+fragment program.
type Program interface {
	Label() string
	Destroy()
}

// Buffer is a GPU buffer holding vertex or index data.
type Buffer interface {
	Kind() BufferKind
	// Len returns the buffer size in bytes.
	Len() int
	Destroy()
}

// Texture is a GPU texture.
type Texture interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat
	Destroy()
}

// Framebuffer is an offscreen draw destination with attached textures.
type Framebuffer interface {
	Width() int
	Height() int
	Destroy()
}

// Context is an explicit graphics context.
//
// All methods must be called from the goroutine that owns the context.
type Context interface {
	// Name identifies the implementation ("soft", "wgpu").
	Name() string

	// Size returns the display surface size in pixels.
	Size() (width, height int)

	// CompileShader compiles one stage. Failures return *CompileError
	// carrying the compiler diagnostic verbatim.
	CompileShader(stage Stage, src Source) (Shader, error)

	// LinkProgram links a vertex and a fragment shader. Failures return
	// *LinkError.
	LinkProgram(vs, fs Shader) (Program, error)

	// AttributeLocation resolves a vertex input by name.
	AttributeLocation(p Program, name string) (int, error)

	// UniformLocation resolves a uniform (value or texture) by name.
	UniformLocation(p Program, name string) (Uniform, error)

	// NewBuffer creates an immutable buffer holding data.
	NewBuffer(kind BufferKind, data []byte) (Buffer, error)

	// NewTexture creates an uninitialized (transparent black) texture.
	NewTexture(desc TextureDescriptor) (Texture, error)

	// UploadTexture replaces the contents of a color texture. The image
	// must match the texture size.
	UploadTexture(t Texture, img *image.RGBA) error

	// NewFramebuffer attaches color and optional depth textures.
	NewFramebuffer(color, depth Texture) (Framebuffer, error)

	// UseProgram makes p the active program.
	UseProgram(p Program)

	// BindFramebuffer makes fb the active draw destination. A nil fb
	// selects the display surface.
	BindFramebuffer(fb Framebuffer)

	// Clear clears attachments of the active framebuffer.
	Clear(mask ClearMask, color [4]float32, depth float32)

	// BindVertexBuffer and BindIndexBuffer set the active geometry buffers.
	BindVertexBuffer(b Buffer)
	BindIndexBuffer(b Buffer)

	// VertexAttribute enables attribute slot and describes its layout
	// within the active vertex buffer.
	VertexAttribute(slot int, attr VertexAttribute)

	// BindTexture binds t to texture unit.
	BindTexture(unit int, t Texture)

	// Uniform setters write into the active program.
	Uniform1f(u Uniform, v float32)
	Uniform2f(u Uniform, v mgl32.Vec2)
	Uniform4f(u Uniform, v mgl32.Vec4)
	UniformMat4(u Uniform, m mgl32.Mat4)
	// UniformSampler points a texture uniform at a texture unit.
	UniformSampler(u Uniform, unit int)

	// SetDepthTest toggles less-than depth testing and depth writes.
	SetDepthTest(enable bool)

	// SetCullBack toggles culling of clockwise (back-facing) triangles.
	SetCullBack(enable bool)

	// DrawArrays draws count vertices starting at first as a triangle list.
	DrawArrays(first, count int)

	// DrawElements draws count indices of the active index buffer as a
	// triangle list.
	DrawElements(count int)

	// BeginFrame and EndFrame delimit one frame of commands. EndFrame
	// submits recorded work on contexts that batch it.
	BeginFrame()
	EndFrame() error

	// ReadPixels reads the color attachment of fb (nil selects the display
	// surface). Row 0 of the returned image is the top of the surface.
	ReadPixels(fb Framebuffer) (*image.RGBA, error)

	// Destroy releases every resource owned by the context.
	Destroy()
}
