// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import "github.com/gogpu/naga"

// Validator checks a WGSL source and returns the compiler diagnostic on
// failure.
type Validator func(wgsl string) error

// NagaValidator compiles src to SPIR-V with naga and discards the output.
func NagaValidator(src string) error {
	_, err := naga.Compile(src)
	return err
}

type options struct {
	validate Validator
}

func defaultOptions() options {
	return options{validate: NagaValidator}
}

// Option configures a Context.
type Option func(*options)

// WithValidator replaces the WGSL validator. A nil validator leaves only
// interface reflection, which still rejects sources whose entry points or
// bindings cannot be resolved.
func WithValidator(v Validator) Option {
	return func(o *options) {
		o.validate = v
	}
}
