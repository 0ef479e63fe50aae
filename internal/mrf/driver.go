package mrf

import (
	"fmt"
	"io"
)

// Driver runs the top-level dispatch loop over one document (spec
// §4.G): it captures metadata, routes provider_references and
// in_network to their processors, and coordinates the one-pass-then-
// reset protocol when the two arrays arrive in reverse order.
type Driver struct {
	Query *Query
	Index *Index

	emitter *Emitter
	uk      *UnsupportedKeys
	rep     Reporter

	meta        Meta
	metaPrinted bool
}

// NewDriver creates a Driver over an already-populated Query.
func NewDriver(q *Query, emitter *Emitter, rep Reporter) *Driver {
	return &Driver{
		Query:   q,
		emitter: emitter,
		uk:      NewUnsupportedKeys(),
		rep:     rep,
	}
}

// Open produces a fresh Event Source over the data file, from byte
// zero. The driver calls it once, and a second time only if the reset
// protocol fires.
type Open func() (*Source, io.Closer, error)

// Run executes the driver. It returns nonFatal=true if a non-fatal
// condition (spec §7, taxon 2) occurred anywhere during the run; the
// caller is responsible for translating that into a non-zero exit
// status after everything else, including unmatched-item warnings,
// has been reported.
func (d *Driver) Run(open Open) (nonFatal bool, err error) {
	npis := npiSet(d.Query)

	for pass := 0; pass < 2; pass++ {
		src, closer, openErr := open()
		if openErr != nil {
			return false, openErr
		}

		sawProviderRefs, sawInNetwork, reset, passNonFatal, runErr := d.runPass(src, npis)
		closer.Close()
		if runErr != nil {
			return false, runErr
		}
		if passNonFatal {
			nonFatal = true
		}

		if !sawProviderRefs || !sawInNetwork {
			return nonFatal, fmt.Errorf("document missing required top-level array(s)")
		}
		if !reset {
			return nonFatal, nil
		}
		if pass == 1 {
			return nonFatal, fmt.Errorf("reset protocol: in_network preceded provider_references on both passes")
		}
		d.rep.Warn("in_network encountered before provider_references; restarting from the beginning")
	}
	return nonFatal, nil
}

// runPass walks one full pass over the document. reset reports whether
// in_network was skipped unread because provider_references had not
// yet been seen.
func (d *Driver) runPass(src *Source, npis map[int64]struct{}) (sawProviderRefs, sawInNetwork, reset, nonFatal bool, err error) {
	if err := expect(src, ObjectStart); err != nil {
		return false, false, false, false, fmt.Errorf("document: %w", err)
	}

	// On a reopened pass, provider_references was already fully
	// processed before the reset fired; d.Index is only ever built once
	// that has happened, so its presence here carries that fact across
	// the reopen instead of losing it to this function's fresh locals.
	sawProviderRefs = d.Index != nil

	for {
		ev, err := src.Next()
		if err != nil {
			return sawProviderRefs, sawInNetwork, reset, nonFatal, err
		}
		switch ev.Kind {
		case ObjectEnd:
			return sawProviderRefs, sawInNetwork, reset, nonFatal, nil
		case Key:
			switch ev.Str {
			case "reporting_entity_name":
				s, err := readStringField(src)
				if err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
				d.meta.set(&d.meta.ReportingEntityName, s)
			case "reporting_entity_type":
				s, err := readStringField(src)
				if err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
				d.meta.set(&d.meta.ReportingEntityType, s)
			case "last_updated_on":
				s, err := readStringField(src)
				if err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
				d.meta.set(&d.meta.LastUpdatedOn, s)
			case "version":
				s, err := readStringField(src)
				if err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
				d.meta.set(&d.meta.Version, s)
			case "provider_references":
				sawProviderRefs = true
				if d.Index != nil {
					// Already fully processed on an earlier pass before the
					// reset fired; re-reading it here would re-run the
					// reverse-scan slot policy against Providers that are
					// no longer empty slots and double them up.
					if err := expect(src, ArrayStart); err != nil {
						return sawProviderRefs, sawInNetwork, reset, nonFatal, fmt.Errorf("provider_references: %w", err)
					}
					if err := SkipArray(src); err != nil {
						return sawProviderRefs, sawInNetwork, reset, nonFatal, err
					}
					break
				}
				nf, err := ProcessProviderReferences(src, d.Query, npis, d.uk, d.rep)
				if err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
				if nf {
					nonFatal = true
				}
				anyMatched := false
				for _, p := range d.Query.Providers {
					if p.GroupID != nil {
						anyMatched = true
						break
					}
				}
				if !anyMatched {
					d.rep.Warn("no providers found")
					return sawProviderRefs, true, false, nonFatal, nil
				}
				d.Index = BuildIndex(d.Query)
			case "in_network":
				if !sawProviderRefs {
					if err := expect(src, ArrayStart); err != nil {
						return sawProviderRefs, sawInNetwork, reset, nonFatal, fmt.Errorf("in_network: %w", err)
					}
					if err := SkipArray(src); err != nil {
						return sawProviderRefs, sawInNetwork, reset, nonFatal, err
					}
					sawInNetwork = true
					reset = true
					continue
				}
				sawInNetwork = true
				if err := ProcessInNetwork(src, d.Index, d.Query, d.emitter, d.uk, d.rep); err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
			default:
				if d.uk.Seen(ev.Str) {
					d.rep.Warn(fmt.Sprintf("unsupported top-level key %q", ev.Str))
				}
				if err := BypassValue(src); err != nil {
					return sawProviderRefs, sawInNetwork, reset, nonFatal, err
				}
			}
			if !d.metaPrinted && d.meta.Complete() {
				d.rep.Meta(&d.meta)
				d.metaPrinted = true
			}
		case EOF:
			return sawProviderRefs, sawInNetwork, reset, nonFatal, fmt.Errorf("document: unexpected eof")
		default:
			return sawProviderRefs, sawInNetwork, reset, nonFatal, fmt.Errorf("document: unexpected event %v", ev.Kind)
		}
	}
}

// ReportUnmatched emits the post-run advisory warnings described in
// spec §6: one per Code never recorded, and one per distinct NPI whose
// every expanded Provider record remained unrecorded. It must be
// called after Run returns, not from within it (the driver's own
// dataflow keeps this reporting outside the dispatch loop).
func ReportUnmatched(q *Query, rep Reporter) {
	for _, c := range q.Codes {
		if !c.Recorded {
			rep.Warn(fmt.Sprintf("no match for code %s/%s", c.CodeType, c.Value))
		}
	}

	order := make([]int64, 0)
	anyRecorded := make(map[int64]bool)
	seen := make(map[int64]bool)
	for _, p := range q.Providers {
		if !seen[p.NPI] {
			seen[p.NPI] = true
			order = append(order, p.NPI)
		}
		if p.Recorded {
			anyRecorded[p.NPI] = true
		}
	}
	for _, npi := range order {
		if !anyRecorded[npi] {
			rep.Warn(fmt.Sprintf("zero matches found for npi %d", npi))
		}
	}
}
