// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

func TestSetupErrorsMatchErrSetup(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"compile", &CompileError{Stage: StageVertex, Label: "blur", Log: "unexpected token"}},
		{"link", &LinkError{Label: "blur", Log: "entry point missing"}},
		{"not found", &NotFoundError{Kind: BindingUniform, Name: "u_image", Program: "blur"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("shader: %w", tt.err)
			if !errors.Is(wrapped, ErrSetup) {
				t.Errorf("errors.Is(%v, ErrSetup) = false", wrapped)
			}
		})
	}
}

func TestNotFoundErrorMatchesErrNotFound(t *testing.T) {
	err := fmt.Errorf("mesh: %w", &NotFoundError{Kind: BindingAttribute, Name: "a_position", Program: "cube"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("NotFoundError should match ErrNotFound")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Name != "a_position" {
		t.Fatalf("errors.As failed: %v", nf)
	}
	if !strings.Contains(err.Error(), `attribute location "a_position"`) {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCompileErrorKeepsLogVerbatim(t *testing.T) {
	const log = "error: expected ';'\n  ┌─ 3:14"
	err := &CompileError{Stage: StageFragment, Label: "present", Log: log}
	if !strings.HasSuffix(err.Error(), log) {
		t.Errorf("Error() = %q, want log suffix", err.Error())
	}
	if !strings.Contains(err.Error(), "fragment") {
		t.Errorf("Error() = %q, want stage name", err.Error())
	}
}

func TestStageString(t *testing.T) {
	if StageVertex.String() != "vertex" || StageFragment.String() != "fragment" {
		t.Error("unexpected stage names")
	}
	if Stage(9).String() != "unknown" {
		t.Error("out of range stage should be unknown")
	}
}

func TestHostStageOf(t *testing.T) {
	var v VertexFunc = func(Env, VertexInput) VertexOutput { return VertexOutput{} }
	var f FragmentFunc = func(Env, FragmentInput) mgl32.Vec4 { return mgl32.Vec4{} }
	if HostStageOf(v) != StageVertex {
		t.Error("VertexFunc should report StageVertex")
	}
	if HostStageOf(f) != StageFragment {
		t.Error("FragmentFunc should report StageFragment")
	}
}

func TestIsDepthFormat(t *testing.T) {
	if !IsDepthFormat(gputypes.TextureFormatDepth24PlusStencil8) {
		t.Error("Depth24PlusStencil8 is a depth format")
	}
	if IsDepthFormat(gputypes.TextureFormatRGBA8Unorm) {
		t.Error("RGBA8Unorm is not a depth format")
	}
}
