// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports a configuration source that is not well-formed.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a required field missing from an otherwise
// well-formed configuration.
type SchemaError struct {
	Zone  string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("zone %q: required field %q is missing", e.Zone, e.Field)
}

// MalformedRecordError reports a single record violating a domain
// invariant. Hint carries the remediation for the user.
type MalformedRecordError struct {
	Zone   string
	Name   string
	Type   string
	Reason string
	Hint   string
}

func (e *MalformedRecordError) Error() string {
	name := e.Name
	if name == "" {
		name = "@"
	}
	s := fmt.Sprintf("zone %q record %s (%s): %s", e.Zone, name, e.Type, e.Reason)
	if e.Hint != "" {
		s += " (" + e.Hint + ")"
	}
	return s
}

// Violation is one record type unsupported by the selected provider.
type Violation struct {
	Zone string `json:"zone"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (v Violation) String() string {
	name := v.Name
	if name == "" {
		name = "@"
	}
	return fmt.Sprintf("%s/%s: type %s", v.Zone, name, v.Type)
}

// UnsupportedTypeError aggregates every compatibility violation found in a
// run, never just the first.
type UnsupportedTypeError struct {
	Provider   string
	Violations []Violation
}

func (e *UnsupportedTypeError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, fmt.Sprintf("%s not supported by %s — remove it or switch provider", v, e.Provider))
	}
	return fmt.Sprintf("%d record type(s) unsupported by provider %s:\n  %s",
		len(e.Violations), e.Provider, strings.Join(lines, "\n  "))
}

// ProviderRequestError wraps a failed provider API call. Transient marks
// rate-limit and 5xx failures that are worth retrying; 4xx and auth
// failures are permanent.
type ProviderRequestError struct {
	Provider   string
	Op         string
	Zone       string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ProviderRequestError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s in zone %q failed (%s, status %d): %v",
		e.Provider, e.Op, e.Zone, kind, e.StatusCode, e.Err)
}

func (e *ProviderRequestError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *ProviderRequestError
	return errors.As(err, &pe) && pe.Transient
}

// PartialError is returned when a run converged some records and failed
// others. Failed carries the per-record failures; the full result list
// lives in the run result.
type PartialError struct {
	Failed []OpResult
}

func (e *PartialError) Error() string {
	lines := make([]string, 0, len(e.Failed))
	for _, r := range e.Failed {
		if r.Identity.Type == "" {
			lines = append(lines, fmt.Sprintf("%s zone %s: %v", r.Action, r.ZoneKey, r.Err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s %s: %v", r.Action, r.ZoneKey, r.Identity, r.Err))
	}
	return fmt.Sprintf("%d operation(s) failed:\n  %s", len(e.Failed), strings.Join(lines, "\n  "))
}
