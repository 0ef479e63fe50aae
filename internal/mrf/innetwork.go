package mrf

import (
	"fmt"
	"strings"
)

// ProcessInNetwork walks the in_network array (spec §4.E), starting
// just after the "in_network" key. idx must already reflect the fully
// populated Query (built after provider_references has run).
func ProcessInNetwork(src *Source, idx *Index, q *Query, emitter *Emitter, uk *UnsupportedKeys, rep Reporter) error {
	if err := expect(src, ArrayStart); err != nil {
		return fmt.Errorf("in_network: %w", err)
	}

	rep.Stage("in-network items")
	count := 0
	for {
		ev, err := src.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case ArrayEnd:
			return nil
		case ObjectStart:
			if err := processInNetworkElement(src, idx, q, emitter, uk, rep); err != nil {
				return err
			}
			count++
			if count%100 == 0 {
				rep.Tick("in_network", count)
			}
		case EOF:
			return fmt.Errorf("in_network: unexpected eof")
		default:
			return fmt.Errorf("in_network: expected object, got %v", ev.Kind)
		}
	}
}

func processInNetworkElement(src *Source, idx *Index, q *Query, emitter *Emitter, uk *UnsupportedKeys, rep Reporter) error {
	net := &network{}

	for {
		ev, err := src.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case ObjectEnd:
			if net.billingCode != "" && len(net.rates) > 0 {
				net.negotiationArrangement = nullIfEmpty(net.negotiationArrangement)
				net.name = nullIfEmpty(net.name)
				net.billingCodeType = nullIfEmpty(net.billingCodeType)
				net.billingCodeTypeVersion = nullIfEmpty(net.billingCodeTypeVersion)
				net.description = nullIfEmpty(net.description)
				return emitter.EmitElement(net, idx, q)
			}
			return nil
		case Key:
			switch ev.Str {
			case "negotiation_arrangement":
				s, err := readStringField(src)
				if err != nil {
					return err
				}
				net.negotiationArrangement = s
			case "name":
				s, err := readStringField(src)
				if err != nil {
					return err
				}
				net.name = s
			case "billing_code_type":
				s, err := readStringField(src)
				if err != nil {
					return err
				}
				net.billingCodeType = s
			case "billing_code_type_version":
				s, err := readStringField(src)
				if err != nil {
					return err
				}
				net.billingCodeTypeVersion = s
			case "description":
				s, err := readStringField(src)
				if err != nil {
					return err
				}
				net.description = s
			case "billing_code":
				s, err := readStringField(src)
				if err != nil {
					return err
				}
				net.billingCode = strings.ToUpper(s)
				_, exact := idx.Codes[net.billingCode]
				_, wild := idx.Codes["*"]
				if !exact && !wild {
					net.reset()
					return FFToEndOfObject(src, 1, 0)
				}
			case "negotiated_rates":
				rates, err := ProcessNegotiatedRates(src, idx, uk, rep)
				if err != nil {
					return err
				}
				if len(rates) == 0 {
					net.reset()
					return FFToEndOfObject(src, 1, 0)
				}
				net.rates = rates
			default:
				if uk.Seen(ev.Str) {
					rep.Warn(fmt.Sprintf("unsupported key %q in in_network element", ev.Str))
				}
				if err := BypassValue(src); err != nil {
					return err
				}
			}
		case EOF:
			return fmt.Errorf("in_network element: unexpected eof")
		default:
			return fmt.Errorf("in_network element: unexpected event %v", ev.Kind)
		}
	}
}
