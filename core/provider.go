// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// ZoneInfo is the provider-side view of a zone after resolution.
type ZoneInfo struct {
	ID          string
	NameServers []string

	// NameServersAvailable is false for providers without a delegation
	// concept. The report renders an explicit marker instead of an empty
	// list in that case.
	NameServersAvailable bool
}

// RecordState is a record as the provider will hold it, after the
// adapter's transform has been applied (MX priority encoding, proxied TTL
// sentinel and so on). Two states are compared field by field during
// planning.
type RecordState struct {
	Name     string
	Type     string
	Value    string
	TTL      int
	Priority *int
	Proxied  bool
	Alias    *AliasTarget
}

func (s RecordState) Equal(o RecordState) bool {
	if s.Name != o.Name || s.Type != o.Type || s.Value != o.Value ||
		s.TTL != o.TTL || s.Proxied != o.Proxied {
		return false
	}
	if (s.Priority == nil) != (o.Priority == nil) {
		return false
	}
	if s.Priority != nil && *s.Priority != *o.Priority {
		return false
	}
	if (s.Alias == nil) != (o.Alias == nil) {
		return false
	}
	if s.Alias != nil && *s.Alias != *o.Alias {
		return false
	}
	return true
}

func (s RecordState) Group() GroupKey { return GroupKey{Name: s.Name, Type: s.Type} }

// LiveRecord is a record fetched from the provider, normalized back into a
// comparable state plus the provider-assigned id.
type LiveRecord struct {
	RecordState
	ID string
}

// Provider is the adapter interface. Transform is a pure function of its
// inputs; the CRUD calls talk to the provider API.
type Provider interface {
	Name() string

	// FindZone resolves the zone without creating it. ok is false when the
	// provider has no such zone yet.
	FindZone(ctx context.Context, zone *Zone) (info *ZoneInfo, ok bool, err error)

	// EnsureZone resolves or creates the zone. Providers without an
	// explicit zone concept return a synthetic ZoneInfo.
	EnsureZone(ctx context.Context, zone *Zone) (*ZoneInfo, error)

	// Records fetches the live record set, normalized to relative names
	// and upper-cased types.
	Records(ctx context.Context, zone *Zone, info *ZoneInfo) ([]LiveRecord, error)

	// Transform maps a canonical record to the state this provider stores.
	Transform(zone *Zone, rec *Record) RecordState

	// Unmanaged reports live records the provider owns (such as the
	// auto-created NS/SOA set) which must survive reconciliation when the
	// configuration does not mention them.
	Unmanaged(zone *Zone, live LiveRecord) bool

	Create(ctx context.Context, zone *Zone, info *ZoneInfo, state RecordState) (id string, err error)
	Update(ctx context.Context, zone *Zone, info *ZoneInfo, id string, state RecordState) error
	Delete(ctx context.Context, zone *Zone, info *ZoneInfo, live LiveRecord) error
}

// ProviderBuilder constructs a provider from its settings map.
type ProviderBuilder func(log logr.Logger, settings map[string]string) (Provider, error)

// ProviderBuilders is populated by provider packages in their init().
var ProviderBuilders = map[string]ProviderBuilder{}

// BuildProvider looks up the named builder and runs it.
func BuildProvider(name string, log logr.Logger, settings map[string]string) (Provider, error) {
	builder, ok := ProviderBuilders[name]
	if !ok {
		return nil, fmt.Errorf("no provider builder called %s, known providers: %v", name, ProviderNames())
	}
	return builder(log, settings)
}
