// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"

	"github.com/zonekit/zonekit.go/core"
)

// The TTL Cloudflare expects for records it manages itself ("automatic").
const autoTTL = 1

// Provider reconciles zones against Cloudflare. Zone creation is account
// scoped; the account id and zone type (full|partial) come from the zone's
// zone_config, falling back to the provider settings.
type Provider struct {
	api       *cloudflare.API
	accountID string
	zoneType  string
	log       logr.Logger
}

func Build(log logr.Logger, settings map[string]string) (core.Provider, error) {
	apiToken := settings["api_token"]
	if apiToken == "" {
		return nil, fmt.Errorf("cloudflare: require [api_token]")
	}
	api, err := cloudflare.NewWithAPIToken(apiToken)
	if err != nil {
		return nil, err
	}
	zoneType := settings["zone_type"]
	if zoneType == "" {
		zoneType = "full"
	}
	return &Provider{
		api:       api,
		accountID: settings["account_id"],
		zoneType:  zoneType,
		log:       log,
	}, nil
}

func init() {
	core.ProviderBuilders["cloudflare"] = Build
}

func (p *Provider) Name() string { return "cloudflare" }

func (p *Provider) zoneAccount(zone *core.Zone) (accountID, zoneType string, err error) {
	accountID = zone.Config["account_id"]
	if accountID == "" {
		accountID = p.accountID
	}
	if accountID == "" {
		return "", "", fmt.Errorf("cloudflare: zone %q: require account_id in zone_config or provider settings", zone.Key)
	}
	zoneType = zone.Config["zone_type"]
	if zoneType == "" {
		zoneType = p.zoneType
	}
	if zoneType != "full" && zoneType != "partial" {
		return "", "", fmt.Errorf("cloudflare: zone %q: zone_type must be full or partial, got %q", zone.Key, zoneType)
	}
	return accountID, zoneType, nil
}

func (p *Provider) FindZone(ctx context.Context, zone *core.Zone) (*core.ZoneInfo, bool, error) {
	zoneID, err := p.api.ZoneIDByName(zone.Domain)
	if err != nil {
		if strings.Contains(err.Error(), "could not be found") {
			return nil, false, nil
		}
		return nil, false, p.wrap("find zone", zone, err)
	}
	details, err := p.api.ZoneDetails(ctx, zoneID)
	if err != nil {
		return nil, false, p.wrap("zone details", zone, err)
	}
	return &core.ZoneInfo{
		ID:                   zoneID,
		NameServers:          details.NameServers,
		NameServersAvailable: true,
	}, true, nil
}

func (p *Provider) EnsureZone(ctx context.Context, zone *core.Zone) (*core.ZoneInfo, error) {
	info, ok, err := p.FindZone(ctx, zone)
	if err != nil {
		return nil, err
	}
	if ok {
		p.log.V(1).Info("using existing zone", "zone", zone.Key, "id", info.ID)
		return info, nil
	}

	accountID, zoneType, err := p.zoneAccount(zone)
	if err != nil {
		return nil, err
	}
	created, err := p.api.CreateZone(ctx, zone.Domain, false, cloudflare.Account{ID: accountID}, zoneType)
	if err != nil {
		return nil, p.wrap("create zone", zone, err)
	}
	p.log.Info("created zone", "zone", zone.Key, "id", created.ID, "type", zoneType)
	return &core.ZoneInfo{
		ID:                   created.ID,
		NameServers:          created.NameServers,
		NameServersAvailable: true,
	}, nil
}

// Transform applies the Cloudflare proxying rules: proxying is forced off
// for anything but A, AAAA and CNAME, and a proxied record is sent with
// the automatic TTL sentinel regardless of its configured TTL. MX and SRV
// keep the native priority field; the value passes through unchanged.
func (p *Provider) Transform(zone *core.Zone, rec *core.Record) core.RecordState {
	s := core.RecordState{
		Name:     rec.Name,
		Type:     rec.Type,
		Value:    rec.Value,
		TTL:      rec.TTL,
		Priority: rec.Priority,
	}
	if rec.Proxied && (rec.Type == "A" || rec.Type == "AAAA" || rec.Type == "CNAME") {
		s.Proxied = true
		s.TTL = autoTTL
	}
	return s
}

func (p *Provider) Unmanaged(zone *core.Zone, live core.LiveRecord) bool { return false }

func (p *Provider) Records(ctx context.Context, zone *core.Zone, info *core.ZoneInfo) ([]core.LiveRecord, error) {
	rc := cloudflare.ZoneIdentifier(info.ID)
	var live []core.LiveRecord
	params := cloudflare.ListDNSRecordsParams{}
	for {
		records, result, err := p.api.ListDNSRecords(ctx, rc, params)
		if err != nil {
			return nil, p.wrap("list records", zone, err)
		}
		for _, record := range records {
			live = append(live, fromDNSRecord(zone, record))
		}
		if result == nil || result.Page >= result.TotalPages {
			return live, nil
		}
		params.ResultInfo = cloudflare.ResultInfo{Page: result.Page + 1}
	}
}

func fromDNSRecord(zone *core.Zone, record cloudflare.DNSRecord) core.LiveRecord {
	l := core.LiveRecord{
		ID: record.ID,
		RecordState: core.RecordState{
			Name:  relativeName(record.Name, zone.Domain),
			Type:  strings.ToUpper(record.Type),
			Value: record.Content,
			TTL:   record.TTL,
		},
	}
	if record.Proxied != nil {
		l.Proxied = *record.Proxied
	}
	if record.Priority != nil {
		prio := int(*record.Priority)
		l.Priority = &prio
	}
	return l
}

func relativeName(fqdn, domain string) string {
	name := strings.TrimSuffix(fqdn, ".")
	if name == domain {
		return ""
	}
	return strings.TrimSuffix(name, "."+domain)
}

func (p *Provider) Create(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, state core.RecordState) (string, error) {
	params := cloudflare.CreateDNSRecordParams{
		Type:     state.Type,
		Name:     recordFQDN(zone, state.Name),
		Content:  state.Value,
		TTL:      state.TTL,
		Proxied:  &state.Proxied,
		Priority: priorityOf(state),
	}
	record, err := p.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(info.ID), params)
	if err != nil {
		return "", p.wrap("create record", zone, err)
	}
	return record.ID, nil
}

func (p *Provider) Update(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, id string, state core.RecordState) error {
	params := cloudflare.UpdateDNSRecordParams{
		ID:       id,
		Type:     state.Type,
		Name:     recordFQDN(zone, state.Name),
		Content:  state.Value,
		TTL:      state.TTL,
		Proxied:  &state.Proxied,
		Priority: priorityOf(state),
	}
	_, err := p.api.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(info.ID), params)
	if err != nil {
		return p.wrap("update record", zone, err)
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, live core.LiveRecord) error {
	if err := p.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(info.ID), live.ID); err != nil {
		return p.wrap("delete record", zone, err)
	}
	return nil
}

func recordFQDN(zone *core.Zone, name string) string {
	rec := core.Record{Name: name}
	return rec.FQDN(zone.Domain)
}

func priorityOf(state core.RecordState) *uint16 {
	if state.Priority == nil {
		return nil
	}
	prio := uint16(*state.Priority)
	return &prio
}

// apiError is the classification surface every cloudflare-go error type
// exposes, matched structurally so value and pointer forms both work.
type apiError interface {
	error
	InternalServerError() bool
	ClientRateLimited() bool
}

func (p *Provider) wrap(op string, zone *core.Zone, err error) error {
	transient := false
	status := 0
	var ae apiError
	if errors.As(err, &ae) {
		switch {
		case ae.ClientRateLimited():
			transient = true
			status = 429
		case ae.InternalServerError():
			transient = true
			status = 500
		}
	}
	return &core.ProviderRequestError{
		Provider: "cloudflare", Op: op, Zone: zone.Key,
		StatusCode: status, Transient: transient, Err: err,
	}
}
