// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Plan structure, the root container for all
// configuration loaded from a user's .hcl files.
//
// Why have a Plan?
//
// A user may split a large document across many plan files and directories.
// The loading functions here discover every 'section' block and consolidate
// them into a single unified view, so the stage builder can resolve
// dependencies that span files.
package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/fsutil"
)

// Plan represents the user's document definition: one document block and
// the ordered list of sections to generate. Section order follows file
// order (sorted) and in-file declaration order, and is the order sections
// appear in the assembled document.
type Plan struct {
	Document *Document
	Sections []*Section
}

// Document holds document-level settings.
type Document struct {
	// Title becomes the top-level heading of the assembled document.
	Title string
	// Output is the path the assembled Markdown is written to.
	Output string
	// ExcerptLimit is the number of characters of each dependency's
	// output passed to downstream sections as context.
	ExcerptLimit int
}

// DefaultExcerptLimit bounds dependency context excerpts when the document
// block does not override it.
const DefaultExcerptLimit = 500

// NewPlan returns an empty plan with default document settings.
func NewPlan() *Plan {
	return &Plan{
		Document: &Document{
			Title:        "Generated Document",
			Output:       "document.md",
			ExcerptLimit: DefaultExcerptLimit,
		},
	}
}

// Section returns the section with the given name, or nil.
func (p *Plan) Section(name string) *Section {
	for _, s := range p.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// hclPlanFile represents the top-level structure of a plan file for decoding.
type hclPlanFile struct {
	Document *hclDocument  `hcl:"document,block"`
	Sections []*hclSection `hcl:"section,block"`
}

// hclDocument mirrors the `document` block.
type hclDocument struct {
	Title        *string `hcl:"title,optional"`
	Output       *string `hcl:"output,optional"`
	ExcerptLimit *int    `hcl:"excerpt_limit,optional"`
}

// LoadPlansRecursively finds and parses all HCL files under the given path
// into a single Plan. Passing the path of one .hcl file loads just that
// file.
func LoadPlansRecursively(ctx context.Context, planPath string) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading plan from path", "path", planPath)

	files, err := fsutil.FindFilesByExtension(planPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find plan files in %s: %w", planPath, err)
	}

	plan := NewPlan()
	if len(files) == 0 {
		logger.Warn("No .hcl plan files found in path, returning empty plan", "path", planPath)
		return plan, nil
	}

	parser := hclparse.NewParser()
	documentSeen := false
	for _, file := range files {
		if err := plan.mergeFile(file, parser, &documentSeen); err != nil {
			return nil, err
		}
	}

	if err := plan.validate(); err != nil {
		return nil, err
	}

	logger.Info("Plan loaded successfully.", "sections_found", len(plan.Sections))
	return plan, nil
}

// mergeFile parses one HCL file and appends its contents to the plan.
func (p *Plan) mergeFile(filePath string, parser *hclparse.Parser, documentSeen *bool) error {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsedFile hclPlanFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsedFile)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	if parsedFile.Document != nil {
		if *documentSeen {
			return fmt.Errorf("duplicate document block in %s: a plan may declare at most one", filePath)
		}
		*documentSeen = true
		p.applyDocument(parsedFile.Document)
	}

	for _, parsedSection := range parsedFile.Sections {
		section, err := newSectionFromHCL(parsedSection, filePath)
		if err != nil {
			return fmt.Errorf("error parsing section in file %s: %w", filePath, err)
		}
		p.Sections = append(p.Sections, section)
	}

	return nil
}

func (p *Plan) applyDocument(doc *hclDocument) {
	if doc.Title != nil {
		p.Document.Title = *doc.Title
	}
	if doc.Output != nil {
		p.Document.Output = *doc.Output
	}
	if doc.ExcerptLimit != nil {
		p.Document.ExcerptLimit = *doc.ExcerptLimit
	}
}

// validate checks plan-local invariants: unique section names and no
// self-dependencies. Cross-section dependency resolution (unknown names,
// cycles) belongs to the stage builder.
func (p *Plan) validate() error {
	seen := make(map[string]string, len(p.Sections))
	for _, s := range p.Sections {
		if prev, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate section name %q (declared in %s and %s)", s.Name, prev, s.SourceFile)
		}
		seen[s.Name] = s.SourceFile

		for _, dep := range s.DependsOn {
			if dep == s.Name {
				return fmt.Errorf("section %q cannot depend on itself", s.Name)
			}
			if dep == "" {
				return fmt.Errorf("section %q has an empty depends_on entry", s.Name)
			}
		}
	}
	return nil
}
