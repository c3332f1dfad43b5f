// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/zonekit/zonekit.go/core"
)

// Provider reconciles zones against Route53. Route53 has no per-record
// ids: records group into resource record sets keyed by (name, type), and
// every mutation rewrites the whole set. Live record ids are therefore the
// value strings themselves, and set mutations read-modify-write.
type Provider struct {
	client *route53.Client
	log    logr.Logger
}

func Build(log logr.Logger, settings map[string]string) (core.Provider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := settings["region"]; region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile := settings["profile"]; profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws: load config: %w", err)
	}
	return &Provider{client: route53.NewFromConfig(cfg), log: log}, nil
}

func init() {
	core.ProviderBuilders["aws"] = Build
}

func (p *Provider) Name() string { return "aws" }

func (p *Provider) FindZone(ctx context.Context, zone *core.Zone) (*core.ZoneInfo, bool, error) {
	name := zone.Domain + "."
	result, err := p.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(name),
		MaxItems: aws.Int32(100),
	})
	if err != nil {
		return nil, false, p.wrap("list zones", zone, err)
	}
	for _, hz := range result.HostedZones {
		if *hz.Name != name {
			continue
		}
		if hz.Config != nil && hz.Config.PrivateZone {
			continue
		}
		info, err := p.zoneInfo(ctx, zone, *hz.Id)
		if err != nil {
			return nil, false, err
		}
		return info, true, nil
	}
	return nil, false, nil
}

func (p *Provider) EnsureZone(ctx context.Context, zone *core.Zone) (*core.ZoneInfo, error) {
	info, ok, err := p.FindZone(ctx, zone)
	if err != nil {
		return nil, err
	}
	if ok {
		p.log.V(1).Info("using existing hosted zone", "zone", zone.Key, "id", info.ID)
		return info, nil
	}

	input := &route53.CreateHostedZoneInput{
		Name:            aws.String(zone.Domain + "."),
		CallerReference: aws.String(uuid.NewString()),
	}
	if zone.Comment != "" {
		input.HostedZoneConfig = &types.HostedZoneConfig{Comment: aws.String(zone.Comment)}
	}
	result, err := p.client.CreateHostedZone(ctx, input)
	if err != nil {
		return nil, p.wrap("create zone", zone, err)
	}
	p.log.Info("created hosted zone", "zone", zone.Key, "id", *result.HostedZone.Id)

	info = &core.ZoneInfo{
		ID:                   strings.TrimPrefix(*result.HostedZone.Id, "/hostedzone/"),
		NameServersAvailable: true,
	}
	if result.DelegationSet != nil {
		info.NameServers = result.DelegationSet.NameServers
	}
	return info, nil
}

func (p *Provider) zoneInfo(ctx context.Context, zone *core.Zone, id string) (*core.ZoneInfo, error) {
	result, err := p.client.GetHostedZone(ctx, &route53.GetHostedZoneInput{Id: aws.String(id)})
	if err != nil {
		return nil, p.wrap("get zone", zone, err)
	}
	info := &core.ZoneInfo{
		ID:                   strings.TrimPrefix(id, "/hostedzone/"),
		NameServersAvailable: true,
	}
	if result.DelegationSet != nil {
		info.NameServers = result.DelegationSet.NameServers
	}
	return info, nil
}

// Transform splits records into standard and alias shapes. Standard MX
// values carry the priority prefixed as "{priority} {value}"; every other
// standard type passes through. Alias records drop TTL and value: Route53
// manages both.
func (p *Provider) Transform(zone *core.Zone, rec *core.Record) core.RecordState {
	s := core.RecordState{Name: rec.Name, Type: rec.Type, Value: rec.Value, TTL: rec.TTL}
	if rec.HasAlias() {
		alias := *rec.Alias
		s.Alias = &alias
		s.Value = ""
		s.TTL = 0
		return s
	}
	if rec.Type == "MX" && rec.Priority != nil {
		s.Value = fmt.Sprintf("%d %s", *rec.Priority, rec.Value)
	}
	return s
}

// Unmanaged keeps the auto-created apex NS and SOA sets out of the diff.
// Declaring them in the configuration overwrites them instead.
func (p *Provider) Unmanaged(zone *core.Zone, live core.LiveRecord) bool {
	return live.Name == "" && (live.Type == "NS" || live.Type == "SOA")
}

func (p *Provider) Records(ctx context.Context, zone *core.Zone, info *core.ZoneInfo) ([]core.LiveRecord, error) {
	var live []core.LiveRecord
	input := &route53.ListResourceRecordSetsInput{HostedZoneId: aws.String(info.ID)}
	for {
		result, err := p.client.ListResourceRecordSets(ctx, input)
		if err != nil {
			return nil, p.wrap("list records", zone, err)
		}
		for _, set := range result.ResourceRecordSets {
			live = append(live, fromRecordSet(zone, set)...)
		}
		if !result.IsTruncated {
			return live, nil
		}
		input.StartRecordName = result.NextRecordName
		input.StartRecordType = result.NextRecordType
		input.StartRecordIdentifier = result.NextRecordIdentifier
	}
}

func fromRecordSet(zone *core.Zone, set types.ResourceRecordSet) []core.LiveRecord {
	name := relativeName(*set.Name, zone.Domain)
	if set.AliasTarget != nil {
		return []core.LiveRecord{{
			ID: "alias",
			RecordState: core.RecordState{
				Name: name,
				Type: string(set.Type),
				Alias: &core.AliasTarget{
					Name:                 strings.TrimSuffix(*set.AliasTarget.DNSName, "."),
					ZoneID:               *set.AliasTarget.HostedZoneId,
					EvaluateTargetHealth: set.AliasTarget.EvaluateTargetHealth,
				},
			},
		}}
	}
	var ttl int
	if set.TTL != nil {
		ttl = int(*set.TTL)
	}
	records := make([]core.LiveRecord, 0, len(set.ResourceRecords))
	for _, rr := range set.ResourceRecords {
		records = append(records, core.LiveRecord{
			ID: *rr.Value,
			RecordState: core.RecordState{
				Name:  name,
				Type:  string(set.Type),
				Value: *rr.Value,
				TTL:   ttl,
			},
		})
	}
	return records
}

func relativeName(fqdn, domain string) string {
	name := strings.TrimSuffix(fqdn, ".")
	if name == domain {
		return ""
	}
	return strings.TrimSuffix(name, "."+domain)
}

func (p *Provider) Create(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, state core.RecordState) (string, error) {
	if state.Alias != nil {
		set := aliasRecordSet(zone, state)
		if err := p.change(ctx, zone, info, types.ChangeActionUpsert, set); err != nil {
			return "", err
		}
		return "alias", nil
	}
	if err := p.rewriteSet(ctx, zone, info, state, "", state.Value); err != nil {
		return "", err
	}
	return state.Value, nil
}

func (p *Provider) Update(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, id string, state core.RecordState) error {
	if state.Alias != nil {
		return p.change(ctx, zone, info, types.ChangeActionUpsert, aliasRecordSet(zone, state))
	}
	return p.rewriteSet(ctx, zone, info, state, id, state.Value)
}

func (p *Provider) Delete(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, live core.LiveRecord) error {
	if live.Alias != nil {
		return p.change(ctx, zone, info, types.ChangeActionDelete, aliasRecordSet(zone, live.RecordState))
	}
	return p.rewriteSet(ctx, zone, info, live.RecordState, live.Value, "")
}

// rewriteSet reads the current (name, type) set, drops the old value,
// adds the new one and writes the result back. An emptied set is deleted.
// The set-level TTL follows the written state; records of the same group
// with diverging TTLs converge on the last write.
func (p *Provider) rewriteSet(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, state core.RecordState, oldValue, newValue string) error {
	current, ttl, err := p.currentSet(ctx, zone, info, state)
	if err != nil {
		return err
	}

	values := make([]string, 0, len(current)+1)
	removed := false
	for _, v := range current {
		if !removed && v == oldValue {
			removed = true
			continue
		}
		if v == newValue {
			// Already present, e.g. the NS/SOA sets Route53 pre-creates.
			// UPSERT below keeps this an overwrite, not a duplicate.
			continue
		}
		values = append(values, v)
	}
	if newValue != "" {
		values = append(values, newValue)
		ttl = state.TTL
	}

	fqdn := recordFQDN(zone, state.Name)
	set := &types.ResourceRecordSet{
		Name: aws.String(fqdn),
		Type: types.RRType(state.Type),
		TTL:  aws.Int64(int64(ttl)),
	}
	for _, v := range values {
		set.ResourceRecords = append(set.ResourceRecords, types.ResourceRecord{Value: aws.String(v)})
	}

	if len(values) == 0 {
		set.ResourceRecords = []types.ResourceRecord{{Value: aws.String(oldValue)}}
		return p.change(ctx, zone, info, types.ChangeActionDelete, set)
	}
	return p.change(ctx, zone, info, types.ChangeActionUpsert, set)
}

func (p *Provider) currentSet(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, state core.RecordState) ([]string, int, error) {
	fqdn := recordFQDN(zone, state.Name)
	result, err := p.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(info.ID),
		StartRecordName: aws.String(fqdn),
		StartRecordType: types.RRType(state.Type),
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return nil, 0, p.wrap("list record set", zone, err)
	}
	if len(result.ResourceRecordSets) == 0 {
		return nil, state.TTL, nil
	}
	set := result.ResourceRecordSets[0]
	if *set.Name != fqdn || string(set.Type) != state.Type {
		return nil, state.TTL, nil
	}
	values := make([]string, 0, len(set.ResourceRecords))
	for _, rr := range set.ResourceRecords {
		values = append(values, *rr.Value)
	}
	ttl := state.TTL
	if set.TTL != nil {
		ttl = int(*set.TTL)
	}
	return values, ttl, nil
}

func aliasRecordSet(zone *core.Zone, state core.RecordState) *types.ResourceRecordSet {
	return &types.ResourceRecordSet{
		Name: aws.String(recordFQDN(zone, state.Name)),
		Type: types.RRType(state.Type),
		AliasTarget: &types.AliasTarget{
			DNSName:              aws.String(state.Alias.Name + "."),
			HostedZoneId:         aws.String(state.Alias.ZoneID),
			EvaluateTargetHealth: state.Alias.EvaluateTargetHealth,
		},
	}
}

func (p *Provider) change(ctx context.Context, zone *core.Zone, info *core.ZoneInfo, action types.ChangeAction, set *types.ResourceRecordSet) error {
	_, err := p.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(info.ID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{{Action: action, ResourceRecordSet: set}},
		},
	})
	if err != nil {
		return p.wrap(string(action), zone, err)
	}
	return nil
}

func recordFQDN(zone *core.Zone, name string) string {
	rec := core.Record{Name: name}
	return rec.FQDN(zone.Domain) + "."
}

func (p *Provider) wrap(op string, zone *core.Zone, err error) error {
	status := 0
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		status = re.HTTPStatusCode()
	}
	transient := status == 429 || status >= 500
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "PriorRequestNotComplete", "ServiceUnavailable":
			transient = true
		}
	}
	return &core.ProviderRequestError{
		Provider: "aws", Op: op, Zone: zone.Key,
		StatusCode: status, Transient: transient, Err: err,
	}
}
