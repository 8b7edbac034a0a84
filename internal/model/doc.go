// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package model holds the format-agnostic representation of a document
// plan: the `document` block plus every `section` block found in the
// user's .hcl files, with retry, backoff and timeout settings resolved
// against engine defaults.
//
// The model deliberately evaluates everything except a section's
// `arguments` body at load time. Inter-section data flows through the
// engine's context builder, not through HCL expressions, so there is no
// need to defer evaluation the way a general-purpose workflow language
// must. Arguments stay as a raw hcl.Body because only the agent module
// that owns a section knows the Go struct to decode them into.
package model
