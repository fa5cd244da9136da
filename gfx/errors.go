// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"errors"
	"fmt"
)

var (
	// ErrSetup matches every failure raised while building GPU resources:
	// compilation, linking, name resolution and allocation. Setup failures
	// are fatal and never retried.
	ErrSetup = errors.New("gfx: setup failure")

	// ErrNotFound matches a failed attribute or uniform lookup.
	ErrNotFound = errors.New("gfx: binding not found")

	// ErrDestroyed is returned when a destroyed context or resource is used.
	ErrDestroyed = errors.New("gfx: resource destroyed")
)

// CompileError reports a shader stage that failed to compile.
type CompileError struct {
	Stage Stage
	Label string
	// Log is the compiler diagnostic, unmodified.
	Log string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gfx: failed to compile %s shader %q: %s", e.Stage, e.Label, e.Log)
}

// Is reports whether target is ErrSetup.
func (e *CompileError) Is(target error) bool { return target == ErrSetup }

// LinkError reports a program that failed to link.
type LinkError struct {
	Label string
	// Log is the linker diagnostic, unmodified.
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("gfx: shader linker error in %q: %s", e.Label, e.Log)
}

// Is reports whether target is ErrSetup.
func (e *LinkError) Is(target error) bool { return target == ErrSetup }

// BindingKind tells attributes and uniforms apart in NotFoundError.
type BindingKind uint8

const (
	// BindingAttribute is a vertex input.
	BindingAttribute BindingKind = iota
	// BindingUniform is a uniform value or texture.
	BindingUniform
)

func (k BindingKind) String() string {
	if k == BindingAttribute {
		return "attribute"
	}
	return "uniform"
}

// NotFoundError reports a name absent from a linked program.
type NotFoundError struct {
	Kind    BindingKind
	Name    string
	Program string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("gfx: could not find %s location %q in program %q", e.Kind, e.Name, e.Program)
}

// Is reports whether target is ErrNotFound or ErrSetup.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrSetup
}
