// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zonekit/zonekit.go/core"
)

// Defaults is the explicit defaulting policy threaded through the loader.
type Defaults struct {
	TTL     int               // 0 means core.DefaultTTL
	Comment string            // applied when a zone has none
	Tags    map[string]string // merged under each zone's own tags

	// AllowAnyTTL lifts the [60, 86400] TTL policy.
	AllowAnyTTL bool

	// Lenient downgrades malformed records to warnings and skips them
	// instead of failing the load.
	Lenient bool
}

func (d Defaults) ttl() int {
	if d.TTL != 0 {
		return d.TTL
	}
	return core.DefaultTTL
}

// AliasDoc mirrors the alias block of the input document.
type AliasDoc struct {
	Name                 string `json:"name" yaml:"name"`
	ZoneID               string `json:"zone_id" yaml:"zone_id"`
	EvaluateTargetHealth bool   `json:"evaluate_target_health" yaml:"evaluate_target_health"`
}

// RecordDoc mirrors one record of the input document. Pointer fields
// distinguish absent from zero: a missing name is a schema violation, an
// empty one is the apex.
type RecordDoc struct {
	Name     *string   `json:"name" yaml:"name"`
	Type     string    `json:"type" yaml:"type"`
	Value    string    `json:"value" yaml:"value"`
	TTL      *int      `json:"ttl" yaml:"ttl"`
	Priority *int      `json:"priority" yaml:"priority"`
	Proxied  *bool     `json:"proxied" yaml:"proxied"`
	Alias    *AliasDoc `json:"alias" yaml:"alias"`
}

// ZoneDoc mirrors one zone of the input document.
type ZoneDoc struct {
	Domain     string            `json:"domain" yaml:"domain"`
	Comment    string            `json:"comment" yaml:"comment"`
	Tags       map[string]string `json:"tags" yaml:"tags"`
	Records    []RecordDoc       `json:"records" yaml:"records"`
	ZoneConfig map[string]string `json:"zone_config" yaml:"zone_config"`
}

// Document is the provider-agnostic input: zone key to zone definition.
type Document map[string]ZoneDoc

// LoadFile reads a JSON or YAML configuration file, selected by extension.
func LoadFile(path string, d Defaults) ([]*core.Zone, []core.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data, path, d)
	default:
		return LoadJSON(data, path, d)
	}
}

// LoadJSON parses a JSON document. source names the origin in errors.
func LoadJSON(data []byte, source string, d Defaults) ([]*core.Zone, []core.Warning, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, &core.ParseError{Source: source, Err: err}
	}
	return FromDocument(doc, d)
}

// LoadYAML parses a YAML document. source names the origin in errors.
func LoadYAML(data []byte, source string, d Defaults) ([]*core.Zone, []core.Warning, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &core.ParseError{Source: source, Err: err}
	}
	return FromDocument(doc, d)
}

// FromDocument converts an in-memory document into fully defaulted
// canonical zones. Output order is deterministic: zone keys sort
// lexicographically, record order follows the source list. Loading the
// same document twice yields identical zones.
func FromDocument(doc Document, d Defaults) ([]*core.Zone, []core.Warning, error) {
	if d.TTL != 0 && !d.AllowAnyTTL && !core.IsValidTTL(d.TTL) {
		return nil, nil, fmt.Errorf("default ttl %d outside [%d, %d]", d.TTL, core.TTLMin, core.TTLMax)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var warnings []core.Warning
	zones := make([]*core.Zone, 0, len(keys))
	for _, key := range keys {
		zone, zw, err := buildZone(key, doc[key], d)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, zw...)
		zones = append(zones, zone)
	}
	return zones, warnings, nil
}

func buildZone(key string, zd ZoneDoc, d Defaults) (*core.Zone, []core.Warning, error) {
	if zd.Domain == "" {
		return nil, nil, &core.SchemaError{Zone: key, Field: "domain"}
	}
	domain, err := core.CanonicalDomain(zd.Domain)
	if err != nil {
		return nil, nil, fmt.Errorf("zone %q: invalid domain %q: %w", key, zd.Domain, err)
	}

	zone := &core.Zone{
		Key:     key,
		Domain:  domain,
		Comment: zd.Comment,
		Config:  zd.ZoneConfig,
	}
	if zone.Comment == "" {
		zone.Comment = d.Comment
	}
	zone.Tags = map[string]string{}
	for k, v := range d.Tags {
		zone.Tags[k] = v
	}
	for k, v := range zd.Tags {
		zone.Tags[k] = v
	}

	var warnings []core.Warning
	for i, rd := range zd.Records {
		rec, err := buildRecord(key, i, rd, d)
		if err == nil {
			err = rec.Validate(key, d.AllowAnyTTL)
		}
		if err != nil {
			var malformed *core.MalformedRecordError
			if d.Lenient && errors.As(err, &malformed) {
				warnings = append(warnings, core.Warning{
					Zone: key, Name: malformed.Name,
					Message: "skipped malformed record: " + malformed.Reason,
				})
				continue
			}
			return nil, nil, err
		}
		zone.Records = append(zone.Records, rec)
	}
	zone.AssignOrdinals()
	return zone, warnings, nil
}

func buildRecord(zoneKey string, idx int, rd RecordDoc, d Defaults) (core.Record, error) {
	var rec core.Record
	if rd.Name == nil {
		return rec, &core.SchemaError{Zone: zoneKey, Field: fmt.Sprintf("records[%d].name", idx)}
	}
	if rd.Type == "" {
		return rec, &core.SchemaError{Zone: zoneKey, Field: fmt.Sprintf("records[%d].type", idx)}
	}
	if rd.Value == "" && rd.Alias == nil {
		return rec, &core.SchemaError{Zone: zoneKey, Field: fmt.Sprintf("records[%d].value", idx)}
	}

	name, err := core.CanonicalLabel(*rd.Name)
	if err != nil {
		return rec, fmt.Errorf("zone %q records[%d]: invalid name %q: %w", zoneKey, idx, *rd.Name, err)
	}

	rec = core.Record{
		Name:     name,
		Type:     strings.ToUpper(rd.Type),
		Value:    rd.Value,
		TTL:      d.ttl(),
		Priority: rd.Priority,
	}
	if rd.TTL != nil {
		rec.TTL = *rd.TTL
	}
	if rd.Proxied != nil {
		rec.Proxied = *rd.Proxied
	}
	if rd.Alias != nil {
		rec.Alias = &core.AliasTarget{
			Name:                 rd.Alias.Name,
			ZoneID:               rd.Alias.ZoneID,
			EvaluateTargetHealth: rd.Alias.EvaluateTargetHealth,
		}
	}
	return rec, nil
}
