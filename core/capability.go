// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import "sort"

// Capabilities lists the record types each provider accepts. Static,
// consulted by the validator only.
var Capabilities = map[string]map[string]bool{
	"aws": {
		"A": true, "AAAA": true, "CAA": true, "CNAME": true, "MX": true,
		"NAPTR": true, "NS": true, "PTR": true, "SOA": true, "SPF": true,
		"SRV": true, "TXT": true,
	},
	"cloudflare": {
		"A": true, "AAAA": true, "CAA": true, "CNAME": true, "HTTPS": true,
		"TXT": true, "SRV": true, "LOC": true, "MX": true, "NS": true,
		"CERT": true, "DNSKEY": true, "DS": true, "NAPTR": true,
		"SMIMEA": true, "SSHFP": true, "SVCB": true, "TLSA": true, "URI": true,
	},
	"vercel": {
		"A": true, "AAAA": true, "ALIAS": true, "CAA": true, "CNAME": true,
		"MX": true, "SRV": true, "TXT": true,
	},
}

// Supports reports whether the provider accepts the record type.
func Supports(provider, recordType string) bool {
	return Capabilities[provider][recordType]
}

// ProviderNames returns the known provider selectors in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(Capabilities))
	for name := range Capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
