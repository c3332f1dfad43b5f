// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import "fmt"

// Warning is a non-fatal validation finding carried into the run report.
type Warning struct {
	Zone    string `json:"zone"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	name := w.Name
	if name == "" {
		name = "@"
	}
	return fmt.Sprintf("%s/%s: %s", w.Zone, name, w.Message)
}

// CheckCompatibility collects every record whose type the provider does not
// support. With enabled=false the check is opted out entirely and nil is
// returned regardless of the configuration.
func CheckCompatibility(zones []*Zone, provider string, enabled bool) error {
	if !enabled {
		return nil
	}
	caps, ok := Capabilities[provider]
	if !ok {
		return fmt.Errorf("unknown provider %q (known: %v)", provider, ProviderNames())
	}
	var violations []Violation
	for _, zone := range zones {
		for _, rec := range zone.Records {
			if !caps[rec.Type] {
				violations = append(violations, Violation{Zone: zone.Key, Name: rec.Name, Type: rec.Type})
			}
		}
	}
	if len(violations) > 0 {
		return &UnsupportedTypeError{Provider: provider, Violations: violations}
	}
	return nil
}

// Advisories collects non-fatal cross-provider findings: proxying outside
// Cloudflare or on an unproxiable type, alias targets outside AWS, and
// alias records that also carry a literal value.
func Advisories(zones []*Zone, provider string) []Warning {
	var warnings []Warning
	for _, zone := range zones {
		for i := range zone.Records {
			rec := &zone.Records[i]
			if rec.Proxied {
				if provider != "cloudflare" {
					warnings = append(warnings, Warning{
						Zone: zone.Key, Name: rec.Name,
						Message: fmt.Sprintf("'proxied' is only supported by cloudflare, ignored by %s", provider),
					})
				}
				if rec.Type != "A" && rec.Type != "AAAA" && rec.Type != "CNAME" {
					warnings = append(warnings, Warning{
						Zone: zone.Key, Name: rec.Name,
						Message: fmt.Sprintf("'proxied' only works with A, AAAA, CNAME; %s records are served directly", rec.Type),
					})
				}
			}
			if rec.HasAlias() {
				if provider != "aws" {
					warnings = append(warnings, Warning{
						Zone: zone.Key, Name: rec.Name,
						Message: fmt.Sprintf("'alias' is only supported by aws, ignored by %s", provider),
					})
				}
				if rec.Value != "" {
					warnings = append(warnings, Warning{
						Zone: zone.Key, Name: rec.Name,
						Message: "record has both an alias target and a value; the alias target wins on aws",
					})
				}
			}
		}
	}
	return warnings
}
