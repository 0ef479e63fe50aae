package mrf

import (
	"fmt"
	"strconv"
)

// ProcessNegotiatedRates walks one negotiated_rates array (spec §4.F,
// "Rates"), starting just after the "negotiated_rates" key. It returns
// the Rates that survived provider-reference filtering, in source
// order; a nil/empty slice means none survived.
func ProcessNegotiatedRates(src *Source, idx *Index, uk *UnsupportedKeys, rep Reporter) ([]rate, error) {
	if err := expect(src, ArrayStart); err != nil {
		return nil, fmt.Errorf("negotiated_rates: %w", err)
	}

	var rates []rate
	for {
		ev, err := src.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case ArrayEnd:
			return rates, nil
		case ObjectStart:
			r, keep, err := processRateElement(src, idx, uk, rep)
			if err != nil {
				return nil, err
			}
			if keep {
				rates = append(rates, r)
			}
		case EOF:
			return nil, fmt.Errorf("negotiated_rates: unexpected eof")
		default:
			return nil, fmt.Errorf("negotiated_rates: expected object, got %v", ev.Kind)
		}
	}
}

func processRateElement(src *Source, idx *Index, uk *UnsupportedKeys, rep Reporter) (r rate, keep bool, err error) {
	for {
		ev, err := src.Next()
		if err != nil {
			return rate{}, false, err
		}
		switch ev.Kind {
		case ObjectEnd:
			return r, len(r.refs) > 0, nil
		case Key:
			switch ev.Str {
			case "provider_references":
				refs, rErr := readProviderReferences(src, idx)
				if rErr != nil {
					return rate{}, false, rErr
				}
				r.refs = refs
				if len(refs) == 0 {
					// Nothing will match; stop reading the rest of this
					// element (including any negotiated_prices) early.
					if err := FFToEndOfObject(src, 1, 0); err != nil {
						return rate{}, false, err
					}
					return rate{}, false, nil
				}
			case "negotiated_prices":
				prices, pErr := ProcessNegotiatedPrices(src, uk, rep)
				if pErr != nil {
					return rate{}, false, pErr
				}
				r.prices = prices
			default:
				if uk.Seen(ev.Str) {
					rep.Warn(fmt.Sprintf("unsupported key %q in negotiated_rates element", ev.Str))
				}
				if err := BypassValue(src); err != nil {
					return rate{}, false, err
				}
			}
		case EOF:
			return rate{}, false, fmt.Errorf("negotiated_rates element: unexpected eof")
		default:
			return rate{}, false, fmt.Errorf("negotiated_rates element: unexpected event %v", ev.Kind)
		}
	}
}

// readProviderReferences reads a provider_references numeric array,
// keeping only values present as keys in idx.Refs.
func readProviderReferences(src *Source, idx *Index) ([]uint64, error) {
	if err := expect(src, ArrayStart); err != nil {
		return nil, fmt.Errorf("provider_references: %w", err)
	}
	var kept []uint64
	for {
		ev, err := src.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case ArrayEnd:
			return kept, nil
		case Number:
			ref, pErr := strconv.ParseUint(ev.Str, 10, 64)
			if pErr != nil {
				return nil, fmt.Errorf("provider_references %q: %w", ev.Str, pErr)
			}
			if _, ok := idx.Refs[ref]; ok {
				kept = append(kept, ref)
			}
		case EOF:
			return nil, fmt.Errorf("provider_references: unexpected eof")
		default:
			return nil, fmt.Errorf("provider_references: unexpected event %v", ev.Kind)
		}
	}
}

// ProcessNegotiatedPrices walks one negotiated_prices array (spec
// §4.F, "Prices"), starting just after the "negotiated_prices" key. A
// zero-length result array yields a single all-null sentinel Price so
// downstream emission still produces one row per (rate, ref,
// provider-tuple).
func ProcessNegotiatedPrices(src *Source, uk *UnsupportedKeys, rep Reporter) ([]Price, error) {
	if err := expect(src, ArrayStart); err != nil {
		return nil, fmt.Errorf("negotiated_prices: %w", err)
	}

	var prices []Price
	for {
		ev, err := src.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case ArrayEnd:
			if len(prices) == 0 {
				return []Price{{
					NegotiatedType:      "null",
					NegotiatedRate:      "null",
					ExpirationDate:      "null",
					ServiceCode:         "null",
					BillingClass:        "null",
					BillingCodeModifier: "null",
				}}, nil
			}
			return prices, nil
		case ObjectStart:
			p, err := processPriceElement(src, uk, rep)
			if err != nil {
				return nil, err
			}
			prices = append(prices, p)
		case EOF:
			return nil, fmt.Errorf("negotiated_prices: unexpected eof")
		default:
			return nil, fmt.Errorf("negotiated_prices: expected object, got %v", ev.Kind)
		}
	}
}

func processPriceElement(src *Source, uk *UnsupportedKeys, rep Reporter) (Price, error) {
	var p Price
	for {
		ev, err := src.Next()
		if err != nil {
			return Price{}, err
		}
		switch ev.Kind {
		case ObjectEnd:
			p.NegotiatedType = nullIfEmpty(p.NegotiatedType)
			p.NegotiatedRate = nullIfEmpty(p.NegotiatedRate)
			p.ExpirationDate = nullIfEmpty(p.ExpirationDate)
			p.ServiceCode = nullIfEmpty(p.ServiceCode)
			p.BillingClass = nullIfEmpty(p.BillingClass)
			p.BillingCodeModifier = nullIfEmpty(p.BillingCodeModifier)
			return p, nil
		case Key:
			switch ev.Str {
			case "negotiated_type":
				s, err := readStringField(src)
				if err != nil {
					return Price{}, err
				}
				p.NegotiatedType = s
			case "negotiated_rate":
				s, err := readNumberOrStringField(src)
				if err != nil {
					return Price{}, err
				}
				p.NegotiatedRate = s
			case "expiration_date":
				s, err := readStringField(src)
				if err != nil {
					return Price{}, err
				}
				p.ExpirationDate = s
			case "service_code":
				s, err := readServiceCode(src)
				if err != nil {
					return Price{}, err
				}
				p.ServiceCode = s
			case "billing_class":
				s, err := readStringField(src)
				if err != nil {
					return Price{}, err
				}
				p.BillingClass = s
			case "billing_code_modifier":
				s, err := readStringField(src)
				if err != nil {
					return Price{}, err
				}
				p.BillingCodeModifier = s
			default:
				if uk.Seen(ev.Str) {
					rep.Warn(fmt.Sprintf("unsupported key %q in negotiated_prices element", ev.Str))
				}
				if err := BypassValue(src); err != nil {
					return Price{}, err
				}
			}
		case EOF:
			return Price{}, fmt.Errorf("negotiated_prices element: unexpected eof")
		default:
			return Price{}, fmt.Errorf("negotiated_prices element: unexpected event %v", ev.Kind)
		}
	}
}

// readStringField reads one value event; only a String contributes,
// any other scalar or structure is consumed and ignored.
func readStringField(src *Source) (string, error) {
	ev, err := src.Next()
	if err != nil {
		return "", err
	}
	switch ev.Kind {
	case String:
		return ev.Str, nil
	case ObjectStart:
		return "", skipToDepthZero(src, 1, 0)
	case ArrayStart:
		return "", skipToDepthZero(src, 0, 1)
	case EOF:
		return "", fmt.Errorf("unexpected eof reading string field")
	default:
		return "", nil
	}
}

// readNumberOrStringField implements negotiated_rate's "number or
// string" acceptance rule; either contributes its text verbatim.
func readNumberOrStringField(src *Source) (string, error) {
	ev, err := src.Next()
	if err != nil {
		return "", err
	}
	switch ev.Kind {
	case Number, String:
		return ev.Str, nil
	case ObjectStart:
		return "", skipToDepthZero(src, 1, 0)
	case ArrayStart:
		return "", skipToDepthZero(src, 0, 1)
	case EOF:
		return "", fmt.Errorf("unexpected eof reading negotiated_rate")
	default:
		return "", nil
	}
}

// readServiceCode reads the service_code string array, flattening it
// into a single space-terminated, space-delimited string.
func readServiceCode(src *Source) (string, error) {
	if err := expect(src, ArrayStart); err != nil {
		return "", fmt.Errorf("service_code: %w", err)
	}
	var flat string
	for {
		ev, err := src.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case ArrayEnd:
			return flat, nil
		case String:
			flat += ev.Str + " "
		case ObjectStart:
			if err := skipToDepthZero(src, 1, 0); err != nil {
				return "", err
			}
		case ArrayStart:
			if err := skipToDepthZero(src, 0, 1); err != nil {
				return "", err
			}
		case EOF:
			return "", fmt.Errorf("service_code: unexpected eof")
		}
	}
}
