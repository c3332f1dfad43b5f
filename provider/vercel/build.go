// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package vercel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/zonekit/zonekit.go/core"
)

// Provider reconciles records against Vercel. There is no zone creation
// step: a domain materializes on its first record, so zone resolution is
// synthetic and nameservers are not exposed.
type Provider struct {
	client *Client
	log    logr.Logger
}

func Build(log logr.Logger, settings map[string]string) (core.Provider, error) {
	apiToken := settings["api_token"]
	if apiToken == "" {
		return nil, fmt.Errorf("vercel: require [api_token]")
	}
	return &Provider{
		client: NewClient(settings["api_url"], apiToken, settings["team_id"]),
		log:    log,
	}, nil
}

func init() {
	core.ProviderBuilders["vercel"] = Build
}

func (p *Provider) Name() string { return "vercel" }

func (p *Provider) FindZone(ctx context.Context, zone *core.Zone) (*core.ZoneInfo, bool, error) {
	_, err := p.client.ListRecords(ctx, zone.Domain)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == 404 {
			return nil, false, nil
		}
		return nil, false, p.wrap("find domain", zone, err)
	}
	return syntheticInfo(zone), true, nil
}

func (p *Provider) EnsureZone(ctx context.Context, zone *core.Zone) (*core.ZoneInfo, error) {
	return syntheticInfo(zone), nil
}

func syntheticInfo(zone *core.Zone) *core.ZoneInfo {
	return &core.ZoneInfo{ID: zone.Domain, NameServersAvailable: false}
}

// Transform embeds MX priority into the value as "{priority} {value}",
// since the native priority field cannot be relied upon. SRV records
// forward only the priority scalar; weight and port must already be
// encoded in the value by the caller.
func (p *Provider) Transform(zone *core.Zone, rec *core.Record) core.RecordState {
	s := core.RecordState{Name: rec.Name, Type: rec.Type, Value: rec.Value, TTL: rec.TTL}
	switch rec.Type {
	case "MX":
		if rec.Priority != nil {
			s.Value = fmt.Sprintf("%d %s", *rec.Priority, rec.Value)
		}
	case "SRV":
		s.Priority = rec.Priority
	}
	return s
}

func (p *Provider) Unmanaged(zone *core.Zone, live core.LiveRecord) bool { return false }

func (p *Provider) Records(ctx context.Context, zone *core.Zone, info *core.ZoneInfo) ([]core.LiveRecord, error) {
	records, err := p.client.ListRecords(ctx, zone.Domain)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == 404 {
			// Domain not materialized yet: empty live set.
			return nil, nil
		}
		return nil, p.wrap("list records", zone, err)
	}
	live := make([]core.LiveRecord, 0, len(records))
	for _, record := range records {
		live = append(live, fromRecordJSON(record))
	}
	return live, nil
}

func fromRecordJSON(record recordJSON) core.LiveRecord {
	l := core.LiveRecord{
		ID: record.ID,
		RecordState: core.RecordState{
			Name:  record.Name,
			Type:  strings.ToUpper(record.Type),
			Value: record.Value,
			TTL:   record.TTL,
		},
	}
	switch l.Type {
	case "MX":
		// Dashboard-created MX records keep priority in its own field;
		// fold it back into the value for comparison.
		if record.MXPriority != 0 {
			l.Value = fmt.Sprintf("%d %s", record.MXPriority, record.Value)
		}
	case "SRV":
		// The API always serializes the priority for SRV records, so 0 is
		// a real priority, not an absent field. Dropping it would leave a
		// configured priority-0 SRV record dirty on every run.
		prio := record.Priority
		l.Priority = &prio
	}
	return l
}

func (p *Provider) Create(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, state core.RecordState) (string, error) {
	id, err := p.client.CreateRecord(ctx, zone.Domain, toCreateRequest(state))
	if err != nil {
		return "", p.wrap("create record", zone, err)
	}
	return id, nil
}

func (p *Provider) Update(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, id string, state core.RecordState) error {
	if err := p.client.UpdateRecord(ctx, id, toCreateRequest(state)); err != nil {
		return p.wrap("update record", zone, err)
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, live core.LiveRecord) error {
	if err := p.client.DeleteRecord(ctx, zone.Domain, live.ID); err != nil {
		return p.wrap("delete record", zone, err)
	}
	return nil
}

func toCreateRequest(state core.RecordState) createRequest {
	req := createRequest{
		Name:  state.Name,
		Type:  state.Type,
		Value: state.Value,
		TTL:   state.TTL,
	}
	if state.Priority != nil {
		req.Priority = *state.Priority
	}
	return req
}

func (p *Provider) wrap(op string, zone *core.Zone, err error) error {
	status := 0
	var se *StatusError
	if errors.As(err, &se) {
		status = se.Status
	}
	transient := status == 429 || status >= 500
	return &core.ProviderRequestError{
		Provider: "vercel", Op: op, Zone: zone.Key,
		StatusCode: status, Transient: transient, Err: err,
	}
}
