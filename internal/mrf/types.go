// Package mrf implements the streaming extraction core: an event-driven,
// memory-bounded reader over a single negotiated-rates MRF document that
// resolves provider_references against in_network and emits matching
// (provider × code × price) rows.
package mrf

import (
	"strconv"
	"strings"
)

// Provider is one NPI/group/TIN association discovered while walking
// provider_references. A single NPI may be represented by more than one
// Provider record — one per distinct (group_id, tin) pairing it appears
// under in the source file.
type Provider struct {
	NPI      int64
	GroupID  *uint64
	TINType  *string
	TINValue *string

	// needsGID/needsTIN mark this record as an open "fill slot" while the
	// provider-groups walker (4.D) is partway through one provider-group
	// object. They are cleared as soon as the corresponding field is filled.
	needsGID bool
	needsTIN bool

	// Recorded is set once this provider has appeared in at least one
	// emitted row (Query.LogRef), so end-of-run warnings only fire for
	// providers that never matched anything.
	Recorded bool
}

// Code is one query billing-code entry. CodeType or Value may be the
// wildcard "*".
type Code struct {
	CodeType string
	Value    string // already uppercased by the query reader
	Seen     bool
	Recorded bool
}

// Query is the user's request: the providers and codes to look for.
// It is created by the query-file reader and mutated only by the core
// (to fill in Provider group/TIN fields and to set Recorded flags).
type Query struct {
	Providers []*Provider
	Codes     []*Code
}

// AddProvider appends a bare (NPI-only) provider record.
func (q *Query) AddProvider(npi int64) *Provider {
	p := &Provider{NPI: npi}
	q.Providers = append(q.Providers, p)
	return p
}

// AddCode appends a code entry. Both fields are uppercased per spec
// (all code-logging string comparisons are ASCII case-insensitive).
func (q *Query) AddCode(codeType, value string) {
	q.Codes = append(q.Codes, &Code{
		CodeType: strings.ToUpper(codeType),
		Value:    strings.ToUpper(value),
	})
}

// LogRef marks every provider whose GroupID matches groupID as recorded.
// Called once per surviving provider-reference after a matching
// in_network element has finished emitting its rows.
func (q *Query) LogRef(groupID uint64) {
	for _, p := range q.Providers {
		if p.GroupID != nil && *p.GroupID == groupID {
			p.Recorded = true
		}
	}
}

// LogCode marks every Code entry that matches (value, codeType) as
// recorded, per the match rule in spec §4.H. value and codeType are
// expected to already be uppercased by the caller. This is idempotent:
// repeated calls with the same arguments leave Recorded states
// unchanged once set.
//
// The wildcard branches below also mark a stored code of type "*"
// recorded on value equality alone, a stored code of value "*" recorded
// on codeType equality alone regardless of which code matched, and a
// stored code with both fields "*" recorded on every call —
// this mirrors the source behavior flagged as an open question in
// spec §9: an operator who wants "*" to only count when the *other*
// field also matched must change this rule, not silently.
func (q *Query) LogCode(value, codeType string) {
	for _, c := range q.Codes {
		switch {
		case c.Value == value && c.CodeType == codeType:
			c.Recorded = true
		case c.Value == value && c.CodeType == "*":
			c.Recorded = true
		case c.Value == "*" && c.CodeType == "*":
			c.Recorded = true
		case c.Value == "*" && c.CodeType == codeType:
			c.Recorded = true
		}
	}
}

// Meta holds the four optional top-level metadata strings.
type Meta struct {
	ReportingEntityName string
	ReportingEntityType string
	LastUpdatedOn       string
	Version             string
	filled              int
}

func (m *Meta) set(field *string, v string) {
	if *field == "" && v != "" {
		m.filled++
	}
	*field = v
}

// Complete reports whether all four metadata fields have been observed.
func (m *Meta) Complete() bool { return m.filled >= 4 }

// network is the transient per-in_network-element scratch (spec §3).
type network struct {
	negotiationArrangement string
	name                   string
	billingCodeType        string
	billingCodeTypeVersion string
	billingCode            string
	description            string
	rates                  []rate
}

func (n *network) reset() { *n = network{} }

// rate is the transient per-negotiated_rates-element scratch.
type rate struct {
	refs   []uint64
	prices []Price
}

// Price is one negotiated_prices entry.
type Price struct {
	NegotiatedType      string
	NegotiatedRate      string
	ExpirationDate      string
	ServiceCode         string
	BillingClass        string
	BillingCodeModifier string
}

// nullIfEmpty fills unset Network/Price scalar fields with the literal
// "null" per spec §4.E/§4.F.
func nullIfEmpty(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

// Index is the set of read-only lookup structures built once from a
// Query immediately before in_network processing begins (spec §4.C).
type Index struct {
	NPIs  map[int64]struct{}
	Codes map[string]struct{} // uppercased code values present in the query
	Refs  map[uint64][]string // group_id -> formatted "npi,tin_type,tin_value" tuples, insertion order
}

// BuildIndex builds the three Query Index structures. It must be called
// after provider_references has populated Provider.GroupID/TINType/TINValue.
func BuildIndex(q *Query) *Index {
	idx := &Index{
		NPIs:  make(map[int64]struct{}),
		Codes: make(map[string]struct{}),
		Refs:  make(map[uint64][]string),
	}
	for _, p := range q.Providers {
		idx.NPIs[p.NPI] = struct{}{}
	}
	for _, c := range q.Codes {
		idx.Codes[strings.ToUpper(c.Value)] = struct{}{}
	}
	for _, p := range q.Providers {
		if p.GroupID == nil || p.TINType == nil || p.TINValue == nil {
			continue
		}
		tuple := formatProviderTuple(p.NPI, *p.TINType, *p.TINValue)
		idx.Refs[*p.GroupID] = append(idx.Refs[*p.GroupID], tuple)
	}
	return idx
}

// npiSet builds the bare NPI membership set the provider-references
// processor needs before the full Index can be built (the NPI set has
// no dependency on provider_references output, unlike the ref map).
func npiSet(q *Query) map[int64]struct{} {
	set := make(map[int64]struct{}, len(q.Providers))
	for _, p := range q.Providers {
		set[p.NPI] = struct{}{}
	}
	return set
}

func formatProviderTuple(npi int64, tinType, tinValue string) string {
	return strconv.FormatInt(npi, 10) + "," + tinType + "," + tinValue
}

// UnsupportedKeys is the process-wide (here: per-run) set of key names
// the extraction logic does not interpret. It is keyed by key name
// alone: the first observation of a name, wherever it appears, is
// reported through the Reporter; later observations of the same name
// are silent, even at a different location.
type UnsupportedKeys struct {
	seen map[string]struct{}
}

// NewUnsupportedKeys creates an empty registry.
func NewUnsupportedKeys() *UnsupportedKeys {
	return &UnsupportedKeys{seen: make(map[string]struct{})}
}

// Seen records key as observed and reports whether this is the first
// time it has been seen by this registry.
func (u *UnsupportedKeys) Seen(key string) bool {
	if _, ok := u.seen[key]; ok {
		return false
	}
	u.seen[key] = struct{}{}
	return true
}
