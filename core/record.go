// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

const (
	// TTL bounds enforced at load time unless the policy allows any TTL.
	TTLMin = 60
	TTLMax = 86400

	// DefaultTTL is the default-of-defaults applied when neither the record
	// nor the loader policy specifies one.
	DefaultTTL = 300
)

// AliasTarget points a record at a provider-managed target instead of a
// literal value. The provider owns the TTL of alias records.
type AliasTarget struct {
	Name                 string `json:"name"`
	ZoneID               string `json:"zone_id"`
	EvaluateTargetHealth bool   `json:"evaluate_target_health"`
}

// Record is a single provider-agnostic DNS entry.
type Record struct {
	Name     string       `json:"name"` // subdomain label, empty for apex
	Type     string       `json:"type"` // upper-cased
	Value    string       `json:"value"`
	TTL      int          `json:"ttl"`
	Priority *int         `json:"priority,omitempty"`
	Proxied  bool         `json:"proxied,omitempty"`
	Alias    *AliasTarget `json:"alias,omitempty"`

	// Ordinal is the position of this record within its (name, type) group
	// in the source list. Together with the zone key, name and type it forms
	// the record identity used for reconciliation. Reordering records that
	// share a name and type changes their identity and converges as a
	// delete+create, not a rename.
	Ordinal int `json:"-"`
}

// Zone is a domain's record collection plus provider-specific settings.
type Zone struct {
	Key     string            `json:"-"`
	Domain  string            `json:"domain"`
	Comment string            `json:"comment,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Records []Record          `json:"records"`

	// Config carries provider-specific zone settings, e.g. the Cloudflare
	// account id and zone type.
	Config map[string]string `json:"zone_config,omitempty"`
}

// Identity is the stable key a record is reconciled under.
type Identity struct {
	Name    string
	Type    string
	Ordinal int
}

func (id Identity) String() string {
	name := id.Name
	if name == "" {
		name = "@"
	}
	return fmt.Sprintf("%s/%s[%d]", name, id.Type, id.Ordinal)
}

// GroupKey identifies a (name, type) record group.
type GroupKey struct {
	Name string
	Type string
}

func (r *Record) Identity() Identity {
	return Identity{Name: r.Name, Type: r.Type, Ordinal: r.Ordinal}
}

func (r *Record) HasAlias() bool {
	return r.Alias != nil && (r.Alias.Name != "" || r.Alias.ZoneID != "")
}

// FQDN joins the record name with the zone domain. The apex record maps to
// the domain itself.
func (r *Record) FQDN(domain string) string {
	if r.Name == "" {
		return domain
	}
	return r.Name + "." + domain
}

// KnownTypes is the universal record type set: the union of every
// provider's supported types.
var KnownTypes = map[string]bool{
	"A": true, "AAAA": true, "ALIAS": true, "CAA": true, "CERT": true,
	"CNAME": true, "DNSKEY": true, "DS": true, "HTTPS": true, "LOC": true,
	"MX": true, "NAPTR": true, "NS": true, "PTR": true, "SMIMEA": true,
	"SOA": true, "SPF": true, "SRV": true, "SSHFP": true, "SVCB": true,
	"TLSA": true, "TXT": true, "URI": true,
}

func IsValidType(t string) bool { return KnownTypes[t] }

func IsValidTTL(ttl int) bool { return ttl >= TTLMin && ttl <= TTLMax }

func needsPriority(t string) bool { return t == "MX" || t == "SRV" }

// Validate checks the record's domain invariants. allowAnyTTL lifts the
// [TTLMin, TTLMax] policy without touching the other checks.
func (r *Record) Validate(zoneKey string, allowAnyTTL bool) error {
	if !IsValidType(r.Type) {
		return &MalformedRecordError{
			Zone: zoneKey, Name: r.Name, Type: r.Type,
			Reason: "unknown record type",
			Hint:   "use one of the universal DNS record types",
		}
	}
	if !allowAnyTTL && !IsValidTTL(r.TTL) {
		return &MalformedRecordError{
			Zone: zoneKey, Name: r.Name, Type: r.Type,
			Reason: fmt.Sprintf("ttl %d outside [%d, %d]", r.TTL, TTLMin, TTLMax),
			Hint:   "set a ttl within range or enable the any-ttl policy",
		}
	}
	if needsPriority(r.Type) && r.Priority == nil {
		return &MalformedRecordError{
			Zone: zoneKey, Name: r.Name, Type: r.Type,
			Reason: "missing priority",
			Hint:   fmt.Sprintf("add priority for %s record %q", r.Type, r.FQDN("<domain>")),
		}
	}
	return nil
}

// CanonicalDomain converts a configured domain to its lowercase ASCII form.
func CanonicalDomain(domain string) (string, error) {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if domain == "" {
		return "", fmt.Errorf("empty domain")
	}
	ascii, err := idna.ToASCII(domain)
	if err != nil {
		return "", err
	}
	return ascii, nil
}

// CanonicalLabel converts a record name to its ASCII form. Empty stays
// empty: that is the apex.
func CanonicalLabel(label string) (string, error) {
	if label == "" {
		return "", nil
	}
	return idna.ToASCII(strings.ToLower(label))
}

// AssignOrdinals numbers the zone's records within their (name, type)
// groups in list order.
func (z *Zone) AssignOrdinals() {
	seen := map[GroupKey]int{}
	for i := range z.Records {
		k := GroupKey{Name: z.Records[i].Name, Type: z.Records[i].Type}
		z.Records[i].Ordinal = seen[k]
		seen[k]++
	}
}
