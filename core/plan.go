// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import "sort"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Op is one provider mutation the reconciler has decided on.
type Op struct {
	Action   string
	ZoneKey  string
	Identity Identity

	// Desired is set for create and update.
	Desired RecordState

	// LiveID and Live are set for update and delete.
	LiveID string
	Live   *LiveRecord
}

// ZonePlan is the diff for a single zone.
type ZonePlan struct {
	Zone   *Zone
	Exists bool
	Ops    []Op
}

type plannedRecord struct {
	rec   *Record
	state RecordState
}

// PlanZone diffs the desired record set against the live one. Records are
// matched within their (name, type) group: exact state matches pair first
// so that reordering identical records stays a no-op, the remainder pairs
// positionally as updates, and the residue becomes creates and deletes.
// Live records the provider owns (Unmanaged) are left alone when the
// configuration does not cover their group.
func PlanZone(p Provider, zone *Zone, live []LiveRecord) []Op {
	desired := map[GroupKey][]plannedRecord{}
	var order []GroupKey
	for i := range zone.Records {
		rec := &zone.Records[i]
		k := GroupKey{Name: rec.Name, Type: rec.Type}
		if _, seen := desired[k]; !seen {
			order = append(order, k)
		}
		desired[k] = append(desired[k], plannedRecord{rec: rec, state: p.Transform(zone, rec)})
	}

	remaining := map[GroupKey][]LiveRecord{}
	for _, l := range live {
		k := l.Group()
		remaining[k] = append(remaining[k], l)
	}

	var ops []Op
	for _, k := range order {
		ops = append(ops, planGroup(zone.Key, desired[k], remaining[k])...)
		delete(remaining, k)
	}

	// Live-only groups: everything goes unless the provider owns it.
	orphans := make([]GroupKey, 0, len(remaining))
	for k := range remaining {
		orphans = append(orphans, k)
	}
	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].Name != orphans[j].Name {
			return orphans[i].Name < orphans[j].Name
		}
		return orphans[i].Type < orphans[j].Type
	})
	for _, k := range orphans {
		for i, l := range remaining[k] {
			if p.Unmanaged(zone, l) {
				continue
			}
			l := l
			ops = append(ops, Op{
				Action:   ActionDelete,
				ZoneKey:  zone.Key,
				Identity: Identity{Name: l.Name, Type: l.Type, Ordinal: i},
				LiveID:   l.ID,
				Live:     &l,
			})
		}
	}
	return ops
}

func planGroup(zoneKey string, desired []plannedRecord, live []LiveRecord) []Op {
	matchedDesired := make([]bool, len(desired))
	matchedLive := make([]bool, len(live))

	// Exact matches are no-ops.
	for i, d := range desired {
		for j := range live {
			if !matchedLive[j] && d.state.Equal(live[j].RecordState) {
				matchedDesired[i] = true
				matchedLive[j] = true
				break
			}
		}
	}

	var ops []Op
	j := 0
	for i, d := range desired {
		if matchedDesired[i] {
			continue
		}
		for j < len(live) && matchedLive[j] {
			j++
		}
		if j < len(live) {
			l := live[j]
			matchedLive[j] = true
			ops = append(ops, Op{
				Action:   ActionUpdate,
				ZoneKey:  zoneKey,
				Identity: d.rec.Identity(),
				Desired:  d.state,
				LiveID:   l.ID,
				Live:     &l,
			})
			continue
		}
		ops = append(ops, Op{
			Action:   ActionCreate,
			ZoneKey:  zoneKey,
			Identity: d.rec.Identity(),
			Desired:  d.state,
		})
	}
	for j, l := range live {
		if matchedLive[j] {
			continue
		}
		l := l
		ops = append(ops, Op{
			Action:   ActionDelete,
			ZoneKey:  zoneKey,
			Identity: Identity{Name: l.Name, Type: l.Type, Ordinal: j},
			LiveID:   l.ID,
			Live:     &l,
		})
	}
	return ops
}
