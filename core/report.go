// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

// NameServersUnavailable is the explicit marker rendered for providers
// that do not expose delegation.
const NameServersUnavailable = "not exposed by this provider"

// RecordReport is one reconciled record in the final report.
type RecordReport struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	FQDN     string `json:"fqdn"`
	RecordID string `json:"record_id,omitempty"`
	Action   string `json:"action"`
	Error    string `json:"error,omitempty"`
}

// ZoneReport is one zone in the final report.
type ZoneReport struct {
	Key                    string         `json:"key"`
	Domain                 string         `json:"domain"`
	ZoneID                 string         `json:"zone_id,omitempty"`
	NameServers            []string       `json:"name_servers,omitempty"`
	NameServersUnavailable string         `json:"name_servers_unavailable,omitempty"`
	Records                []RecordReport `json:"records"`
	Error                  string         `json:"error,omitempty"`
}

// Counts carries configuration statistics.
type Counts struct {
	Zones   int            `json:"zones"`
	Records int            `json:"records"`
	ByType  map[string]int `json:"by_type"`
}

// Report is the uniform per-run output.
type Report struct {
	Provider           string              `json:"provider"`
	ZoneIDs            map[string]string   `json:"zone_ids"`
	NameServers        map[string][]string `json:"name_servers"`
	Zones              []ZoneReport        `json:"zones"`
	RecordFQDNs        []string            `json:"record_fqdns,omitempty"`
	ProxiedRecords     []string            `json:"proxied_records,omitempty"`
	RecordIDs          map[string]string   `json:"record_ids,omitempty"`
	Counts             Counts              `json:"counts"`
	ValidationWarnings []string            `json:"validation_warnings,omitempty"`
	NextSteps          string              `json:"next_steps"`
}

var nextSteps = map[string]string{
	"aws": "Update your registrar's NS records to the delegated nameservers listed per zone. " +
		"Route53 propagates changes within seconds; delegation itself may take up to 48h. " +
		"NS and SOA records at the apex are managed by Route53 and were left untouched.",
	"cloudflare": "Point your registrar's nameservers at the Cloudflare nameservers listed per zone. " +
		"Proxied records resolve to Cloudflare edge addresses; their TTL is managed automatically. " +
		"Zones created as 'partial' require CNAME setup instead of full delegation.",
	"vercel": "Vercel exposes no per-zone nameservers here; assign the domains to a Vercel project " +
		"and follow the dashboard's delegation instructions. Records materialized on first write.",
}

// Statistics computes the configuration counts block.
func Statistics(zones []*Zone) Counts {
	c := Counts{Zones: len(zones), ByType: map[string]int{}}
	for _, zone := range zones {
		c.Records += len(zone.Records)
		for _, rec := range zone.Records {
			c.ByType[rec.Type]++
		}
	}
	return c
}

// BuildReport folds the run result and validator findings into the uniform
// report shape. The provider extras (record_fqdns, proxied_records,
// record_ids) describe the desired converged set of the zones that
// resolved, so a no-op re-run reports the same values as the run that did
// the work.
func BuildReport(zones []*Zone, run *RunResult, warnings []Warning) *Report {
	rep := &Report{
		Provider:    run.Provider,
		ZoneIDs:     map[string]string{},
		NameServers: map[string][]string{},
		Counts:      Statistics(zones),
		NextSteps:   nextSteps[run.Provider],
	}
	for _, w := range warnings {
		rep.ValidationWarnings = append(rep.ValidationWarnings, w.String())
	}

	byKey := map[string]*Zone{}
	for _, zone := range zones {
		byKey[zone.Key] = zone
	}

	for _, zr := range run.Zones {
		z := ZoneReport{Key: zr.Key, Domain: zr.Domain, ZoneID: zr.ID}
		if zr.Err != nil {
			z.Error = zr.Err.Error()
		}
		if zr.NameServersAvailable {
			z.NameServers = zr.NameServers
			rep.NameServers[zr.Key] = zr.NameServers
		} else {
			z.NameServersUnavailable = NameServersUnavailable
		}
		if zr.ID != "" {
			rep.ZoneIDs[zr.Key] = zr.ID
		}
		for _, res := range zr.Results {
			rr := RecordReport{
				Name:     res.Identity.Name,
				Type:     res.Identity.Type,
				FQDN:     res.FQDN,
				RecordID: res.RecordID,
				Action:   res.Action,
			}
			if res.Err != nil {
				rr.Error = res.Err.Error()
			}
			z.Records = append(z.Records, rr)

			if run.Provider == "vercel" && res.Err == nil && res.Action != ActionDelete && res.RecordID != "" {
				if rep.RecordIDs == nil {
					rep.RecordIDs = map[string]string{}
				}
				rep.RecordIDs[zr.Key+"/"+res.Identity.String()] = res.RecordID
			}
		}
		rep.Zones = append(rep.Zones, z)

		zone := byKey[zr.Key]
		if zone == nil || zr.Err != nil {
			continue
		}
		for i := range zone.Records {
			rec := &zone.Records[i]
			switch run.Provider {
			case "aws":
				rep.RecordFQDNs = append(rep.RecordFQDNs, rec.FQDN(zone.Domain))
			case "cloudflare":
				if rec.Proxied && (rec.Type == "A" || rec.Type == "AAAA" || rec.Type == "CNAME") {
					rep.ProxiedRecords = append(rep.ProxiedRecords, rec.FQDN(zone.Domain))
				}
			}
		}
	}
	return rep
}
