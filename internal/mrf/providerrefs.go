package mrf

import (
	"fmt"
	"strconv"
)

// ProcessProviderReferences walks the provider_references array (spec
// §4.D), consuming events from src starting just after the
// "provider_references" key. It matches NPIs against npiSet, appends
// new Provider records as group/TIN associations fan an NPI out, and
// fills GroupID/TINType/TINValue on matched Providers.
//
// It returns nonFatal=true if any element was missing provider_group_id
// (the run continues, but the driver must report a non-zero exit at
// the end). A returned error is always fatal.
func ProcessProviderReferences(src *Source, q *Query, npiSet map[int64]struct{}, uk *UnsupportedKeys, rep Reporter) (nonFatal bool, err error) {
	if err := expect(src, ArrayStart); err != nil {
		return false, fmt.Errorf("provider_references: %w", err)
	}

	for {
		ev, err := src.Next()
		if err != nil {
			return nonFatal, err
		}
		switch ev.Kind {
		case ArrayEnd:
			return nonFatal, nil
		case ObjectStart:
			missingGID, err := processProviderReferenceElement(src, q, npiSet, uk, rep)
			if err != nil {
				return nonFatal, err
			}
			if missingGID {
				nonFatal = true
			}
		case EOF:
			return nonFatal, fmt.Errorf("provider_references: unexpected eof")
		default:
			return nonFatal, fmt.Errorf("provider_references: expected object, got %v", ev.Kind)
		}
	}
}

func processProviderReferenceElement(src *Source, q *Query, npiSet map[int64]struct{}, uk *UnsupportedKeys, rep Reporter) (missingGID bool, err error) {
	var groupID *uint64

	for {
		ev, err := src.Next()
		if err != nil {
			return false, err
		}
		switch ev.Kind {
		case ObjectEnd:
			if groupID == nil {
				rep.Warn("provider_references element missing provider_group_id")
				return true, nil
			}
			for _, p := range q.Providers {
				if p.needsGID {
					gid := *groupID
					p.GroupID = &gid
					p.needsGID = false
				}
			}
			return false, nil
		case Key:
			switch ev.Str {
			case "provider_group_id":
				n, nErr := expectNumber(src)
				if nErr != nil {
					return false, fmt.Errorf("provider_group_id: %w", nErr)
				}
				id, pErr := strconv.ParseUint(n, 10, 64)
				if pErr != nil {
					return false, fmt.Errorf("provider_group_id %q: %w", n, pErr)
				}
				groupID = &id
			case "provider_groups":
				if err := walkProviderGroups(src, q, npiSet, uk, rep); err != nil {
					return false, err
				}
			default:
				if uk.Seen(ev.Str) {
					rep.Warn(fmt.Sprintf("unsupported key %q in provider_references element", ev.Str))
				}
				if err := BypassValue(src); err != nil {
					return false, err
				}
			}
		case EOF:
			return false, fmt.Errorf("provider_references element: unexpected eof")
		default:
			return false, fmt.Errorf("provider_references element: unexpected event %v", ev.Kind)
		}
	}
}

// walkProviderGroups walks one provider_groups array, matching NPIs
// and recording TIN type/value back onto matched Provider records
// (spec §4.D "Provider-groups walker").
func walkProviderGroups(src *Source, q *Query, npiSet map[int64]struct{}, uk *UnsupportedKeys, rep Reporter) error {
	if err := expect(src, ArrayStart); err != nil {
		return fmt.Errorf("provider_groups: %w", err)
	}

	for {
		ev, err := src.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case ArrayEnd:
			return nil
		case ObjectStart:
			if err := walkProviderGroupElement(src, q, npiSet, uk, rep); err != nil {
				return err
			}
		case EOF:
			return fmt.Errorf("provider_groups: unexpected eof")
		default:
			return fmt.Errorf("provider_groups: expected object, got %v", ev.Kind)
		}
	}
}

func walkProviderGroupElement(src *Source, q *Query, npiSet map[int64]struct{}, uk *UnsupportedKeys, rep Reporter) error {
	var tType, tValue *string
	inTIN := false // true while inside the flattened "tin" sub-object

	for {
		ev, err := src.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case ObjectStart:
			// Only the "tin" key's value is an object at this level.
			inTIN = true
		case ObjectEnd:
			if inTIN {
				inTIN = false
				continue
			}
			// Outer provider_group object end.
			typ := "null"
			if tType != nil {
				typ = *tType
			}
			val := "null"
			if tValue != nil {
				val = *tValue
			}
			for _, p := range q.Providers {
				if p.needsTIN {
					t, v := typ, val
					p.TINType = &t
					p.TINValue = &v
					p.needsTIN = false
				}
			}
			return nil
		case Key:
			switch ev.Str {
			case "tin":
				// No-op: its child object is flattened into this loop.
			case "type":
				s, sErr := expectString(src)
				if sErr != nil {
					return fmt.Errorf("tin.type: %w", sErr)
				}
				tType = &s
			case "value":
				s, sErr := expectString(src)
				if sErr != nil {
					return fmt.Errorf("tin.value: %w", sErr)
				}
				tValue = &s
			case "npi":
				if err := matchNPIArray(src, q, npiSet); err != nil {
					return err
				}
			default:
				if uk.Seen(ev.Str) {
					rep.Warn(fmt.Sprintf("unsupported key %q in provider_groups element", ev.Str))
				}
				if err := BypassValue(src); err != nil {
					return err
				}
			}
		case EOF:
			return fmt.Errorf("provider_groups element: unexpected eof")
		default:
			return fmt.Errorf("provider_groups element: unexpected event %v", ev.Kind)
		}
	}
}

// matchNPIArray reads the npi numeric array and applies the reverse-scan
// slot-reuse-or-append policy from spec §4.D for each matching NPI.
func matchNPIArray(src *Source, q *Query, npiSet map[int64]struct{}) error {
	if err := expect(src, ArrayStart); err != nil {
		return fmt.Errorf("npi: %w", err)
	}
	for {
		ev, err := src.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case ArrayEnd:
			return nil
		case Number:
			npi, pErr := strconv.ParseInt(ev.Str, 10, 64)
			if pErr != nil {
				return fmt.Errorf("npi %q: %w", ev.Str, pErr)
			}
			if _, ok := npiSet[npi]; !ok {
				continue
			}
			slotProvider(q, npi)
		case EOF:
			return fmt.Errorf("npi array: unexpected eof")
		default:
			return fmt.Errorf("npi array: unexpected event %v", ev.Kind)
		}
	}
}

// slotProvider finds, from the end, the most recent Provider record
// for npi. If it still has both group_id and tin_value unset, it is
// reused as the fill slot for the (group_id, tin) pairing currently
// being walked; otherwise a fresh Provider record is appended, since
// the existing record already belongs to a different pairing.
func slotProvider(q *Query, npi int64) {
	for i := len(q.Providers) - 1; i >= 0; i-- {
		p := q.Providers[i]
		if p.NPI != npi {
			continue
		}
		if p.GroupID == nil && p.TINValue == nil {
			p.needsGID = true
			p.needsTIN = true
			return
		}
		break
	}
	np := q.AddProvider(npi)
	np.needsGID = true
	np.needsTIN = true
}

func expect(src *Source, kind Kind) error {
	ev, err := src.Next()
	if err != nil {
		return err
	}
	if ev.Kind == EOF {
		return fmt.Errorf("unexpected eof, expected %v", kind)
	}
	if ev.Kind != kind {
		return fmt.Errorf("expected %v, got %v", kind, ev.Kind)
	}
	return nil
}

func expectString(src *Source) (string, error) {
	ev, err := src.Next()
	if err != nil {
		return "", err
	}
	if ev.Kind == EOF {
		return "", fmt.Errorf("unexpected eof, expected string")
	}
	if ev.Kind != String {
		return "", fmt.Errorf("expected string, got %v", ev.Kind)
	}
	return ev.Str, nil
}

func expectNumber(src *Source) (string, error) {
	ev, err := src.Next()
	if err != nil {
		return "", err
	}
	if ev.Kind == EOF {
		return "", fmt.Errorf("unexpected eof, expected number")
	}
	if ev.Kind != Number {
		return "", fmt.Errorf("expected number, got %v", ev.Kind)
	}
	return ev.Str, nil
}
