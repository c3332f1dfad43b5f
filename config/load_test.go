// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/zonekit/zonekit.go/core"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }

func sampleDocument() Document {
	return Document{
		"main": {
			Domain: "Example.COM.",
			Records: []RecordDoc{
				{Name: strPtr(""), Type: "a", Value: "192.0.2.1"},
				{Name: strPtr("WWW"), Type: "cname", Value: "example.com", TTL: intPtr(3600)},
				{Name: strPtr(""), Type: "mx", Value: "mail.example.com", Priority: intPtr(10)},
			},
		},
		"alt": {
			Domain:  "alt.example",
			Comment: "secondary",
			Tags:    map[string]string{"env": "prod"},
			Records: []RecordDoc{
				{Name: strPtr("cdn"), Type: "A", Value: "192.0.2.2", Proxied: boolPtr(true)},
			},
		},
	}
}

func TestFromDocument(t *testing.T) {
	zones, warnings, err := FromDocument(sampleDocument(), Defaults{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(zones) != 2 {
		t.Fatalf("zones = %d", len(zones))
	}

	// Keys sort lexicographically.
	if zones[0].Key != "alt" || zones[1].Key != "main" {
		t.Fatalf("order = %s, %s", zones[0].Key, zones[1].Key)
	}

	main := zones[1]
	if main.Domain != "example.com" {
		t.Fatalf("domain = %q", main.Domain)
	}
	apex := main.Records[0]
	if apex.Name != "" || apex.Type != "A" || apex.TTL != core.DefaultTTL {
		t.Fatalf("apex = %+v", apex)
	}
	www := main.Records[1]
	if www.Name != "www" || www.Type != "CNAME" || www.TTL != 3600 {
		t.Fatalf("www = %+v", www)
	}
	mx := main.Records[2]
	if mx.Priority == nil || *mx.Priority != 10 {
		t.Fatalf("mx = %+v", mx)
	}

	cdn := zones[0].Records[0]
	if !cdn.Proxied {
		t.Fatalf("cdn = %+v", cdn)
	}
	if zones[0].Comment != "secondary" || zones[0].Tags["env"] != "prod" {
		t.Fatalf("alt zone = %+v", zones[0])
	}
}

func TestFromDocumentDeterministic(t *testing.T) {
	first, _, err := FromDocument(sampleDocument(), Defaults{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, _, err := FromDocument(sampleDocument(), Defaults{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("loading the same document twice produced different zones")
	}
}

func TestFromDocumentDefaults(t *testing.T) {
	d := Defaults{
		TTL:     600,
		Comment: "managed",
		Tags:    map[string]string{"team": "infra", "env": "dev"},
	}
	zones, _, err := FromDocument(sampleDocument(), d)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	main := zones[1]
	if main.Comment != "managed" {
		t.Fatalf("comment = %q", main.Comment)
	}
	if main.Records[0].TTL != 600 {
		t.Fatalf("ttl = %d", main.Records[0].TTL)
	}
	// An explicit record TTL wins over the default.
	if main.Records[1].TTL != 3600 {
		t.Fatalf("explicit ttl = %d", main.Records[1].TTL)
	}

	alt := zones[0]
	// Zone values win over defaults; default tags merge underneath.
	if alt.Comment != "secondary" || alt.Tags["env"] != "prod" || alt.Tags["team"] != "infra" {
		t.Fatalf("alt = %+v", alt)
	}
}

func TestFromDocumentDefaultTTLRange(t *testing.T) {
	_, _, err := FromDocument(sampleDocument(), Defaults{TTL: 10})
	if err == nil {
		t.Fatal("out-of-range default ttl accepted")
	}
	if _, _, err := FromDocument(sampleDocument(), Defaults{TTL: 10, AllowAnyTTL: true}); err != nil {
		t.Fatalf("any-ttl policy rejected default: %v", err)
	}
}

func TestFromDocumentSchemaErrors(t *testing.T) {
	cases := []struct {
		name      string
		doc       Document
		wantField string
	}{
		{
			name:      "missing domain",
			doc:       Document{"broken": {Records: []RecordDoc{}}},
			wantField: "domain",
		},
		{
			name: "missing record name",
			doc: Document{"broken": {Domain: "example.com", Records: []RecordDoc{
				{Type: "A", Value: "192.0.2.1"},
			}}},
			wantField: "records[0].name",
		},
		{
			name: "missing record type",
			doc: Document{"broken": {Domain: "example.com", Records: []RecordDoc{
				{Name: strPtr("www"), Value: "192.0.2.1"},
			}}},
			wantField: "records[0].type",
		},
		{
			name: "missing record value",
			doc: Document{"broken": {Domain: "example.com", Records: []RecordDoc{
				{Name: strPtr("www"), Type: "A"},
			}}},
			wantField: "records[0].value",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := FromDocument(c.doc, Defaults{})
			var schema *core.SchemaError
			if !errors.As(err, &schema) {
				t.Fatalf("want *SchemaError, got %v", err)
			}
			if schema.Field != c.wantField {
				t.Fatalf("field = %q, want %q", schema.Field, c.wantField)
			}
		})
	}
}

func TestFromDocumentAliasWithoutValue(t *testing.T) {
	doc := Document{"main": {Domain: "example.com", Records: []RecordDoc{
		{Name: strPtr("lb"), Type: "A", Alias: &AliasDoc{Name: "elb.amazonaws.com", ZoneID: "Z35SXDOTRQ7X7K"}},
	}}}
	zones, _, err := FromDocument(doc, Defaults{})
	if err != nil {
		t.Fatalf("alias record without value rejected: %v", err)
	}
	rec := zones[0].Records[0]
	if rec.Alias == nil || rec.Alias.ZoneID != "Z35SXDOTRQ7X7K" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestFromDocumentLenient(t *testing.T) {
	doc := Document{"main": {Domain: "example.com", Records: []RecordDoc{
		{Name: strPtr("good"), Type: "A", Value: "192.0.2.1"},
		{Name: strPtr("bad"), Type: "BOGUS", Value: "x"},
		{Name: strPtr("mx"), Type: "MX", Value: "mail.example.com"},
	}}}

	if _, _, err := FromDocument(doc, Defaults{}); err == nil {
		t.Fatal("strict load accepted malformed records")
	}

	zones, warnings, err := FromDocument(doc, Defaults{Lenient: true})
	if err != nil {
		t.Fatalf("lenient load: %v", err)
	}
	if len(zones[0].Records) != 1 || zones[0].Records[0].Name != "good" {
		t.Fatalf("records = %+v", zones[0].Records)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestFromDocumentOrdinals(t *testing.T) {
	doc := Document{"main": {Domain: "example.com", Records: []RecordDoc{
		{Name: strPtr(""), Type: "TXT", Value: "first"},
		{Name: strPtr(""), Type: "TXT", Value: "second"},
	}}}
	zones, _, err := FromDocument(doc, Defaults{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if zones[0].Records[0].Ordinal != 0 || zones[0].Records[1].Ordinal != 1 {
		t.Fatalf("ordinals = %d, %d", zones[0].Records[0].Ordinal, zones[0].Records[1].Ordinal)
	}
}

func TestFromDocumentUnicodeDomain(t *testing.T) {
	doc := Document{"idn": {Domain: "bücher.example", Records: []RecordDoc{
		{Name: strPtr("www"), Type: "A", Value: "192.0.2.1"},
	}}}
	zones, _, err := FromDocument(doc, Defaults{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if zones[0].Domain != "xn--bcher-kva.example" {
		t.Fatalf("domain = %q", zones[0].Domain)
	}
}

const jsonConfig = `{
  "main": {
    "domain": "example.com",
    "records": [
      {"name": "www", "type": "A", "value": "192.0.2.1"},
      {"name": "", "type": "MX", "value": "mail.example.com", "priority": 10}
    ]
  }
}`

const yamlConfig = `main:
  domain: example.com
  records:
    - name: www
      type: A
      value: 192.0.2.1
    - name: ""
      type: MX
      value: mail.example.com
      priority: 10
`

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "zones.json")
	if err := os.WriteFile(jsonPath, []byte(jsonConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "zones.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	fromJSON, _, err := LoadFile(jsonPath, Defaults{})
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	fromYAML, _, err := LoadFile(yamlPath, Defaults{})
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Fatal("json and yaml renditions of the same config diverge")
	}
	if len(fromJSON[0].Records) != 2 {
		t.Fatalf("records = %+v", fromJSON[0].Records)
	}
}

func TestLoadJSONParseError(t *testing.T) {
	_, _, err := LoadJSON([]byte("{not json"), "inline", Defaults{})
	var parse *core.ParseError
	if !errors.As(err, &parse) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if parse.Source != "inline" {
		t.Fatalf("source = %q", parse.Source)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"), Defaults{}); err == nil {
		t.Fatal("missing file accepted")
	}
}
