package mrf

import (
	"strings"
	"testing"
)

func indexWithRef(groupID uint64, tuples ...string) *Index {
	return &Index{
		NPIs:  map[int64]struct{}{},
		Codes: map[string]struct{}{},
		Refs:  map[uint64][]string{groupID: tuples},
	}
}

func TestProcessNegotiatedRatesKeepsMatchingRef(t *testing.T) {
	data := `[
  {
    "provider_references": [11],
    "negotiated_prices": [
      {"negotiated_type": "t", "negotiated_rate": 9.99, "expiration_date": "d", "billing_class": "c"}
    ]
  }
]`
	idx := indexWithRef(11, "1701,ein,101")
	src := NewSource(strings.NewReader(data))
	rates, err := ProcessNegotiatedRates(src, idx, NewUnsupportedKeys(), &spyReporter{})
	if err != nil {
		t.Fatalf("ProcessNegotiatedRates: %v", err)
	}
	if len(rates) != 1 || len(rates[0].refs) != 1 || rates[0].refs[0] != 11 {
		t.Fatalf("got %+v", rates)
	}
	if len(rates[0].prices) != 1 || rates[0].prices[0].NegotiatedRate != "9.99" {
		t.Fatalf("got prices %+v", rates[0].prices)
	}
}

func TestProcessNegotiatedRatesDropsUnmatchedRef(t *testing.T) {
	data := `[
  {
    "provider_references": [99],
    "negotiated_prices": [
      {"negotiated_type": "t", "negotiated_rate": 9.99, "expiration_date": "d", "billing_class": "c"}
    ]
  }
]`
	idx := indexWithRef(11, "1701,ein,101")
	src := NewSource(strings.NewReader(data))
	rates, err := ProcessNegotiatedRates(src, idx, NewUnsupportedKeys(), &spyReporter{})
	if err != nil {
		t.Fatalf("ProcessNegotiatedRates: %v", err)
	}
	if len(rates) != 0 {
		t.Fatalf("expected zero surviving rates, got %+v", rates)
	}
}

func TestProcessNegotiatedPricesEmptyYieldsSentinel(t *testing.T) {
	src := NewSource(strings.NewReader(`[]`))
	prices, err := ProcessNegotiatedPrices(src, NewUnsupportedKeys(), &spyReporter{})
	if err != nil {
		t.Fatalf("ProcessNegotiatedPrices: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("got %d prices, want 1 sentinel", len(prices))
	}
	p := prices[0]
	if p.NegotiatedType != "null" || p.NegotiatedRate != "null" || p.ExpirationDate != "null" ||
		p.ServiceCode != "null" || p.BillingClass != "null" || p.BillingCodeModifier != "null" {
		t.Fatalf("expected all-null sentinel, got %+v", p)
	}
}

func TestProcessNegotiatedPricesDefaultsMissingFields(t *testing.T) {
	src := NewSource(strings.NewReader(`[{"negotiated_type": "t"}]`))
	prices, err := ProcessNegotiatedPrices(src, NewUnsupportedKeys(), &spyReporter{})
	if err != nil {
		t.Fatalf("ProcessNegotiatedPrices: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("got %d prices, want 1", len(prices))
	}
	p := prices[0]
	if p.NegotiatedType != "t" {
		t.Errorf("NegotiatedType = %q, want t", p.NegotiatedType)
	}
	if p.NegotiatedRate != "null" || p.ExpirationDate != "null" || p.BillingClass != "null" {
		t.Errorf("expected untouched fields to default to null, got %+v", p)
	}
}

func TestReadServiceCodeFlattensArray(t *testing.T) {
	src := NewSource(strings.NewReader(`["A", "B", "C"]`))
	got, err := readServiceCode(src)
	if err != nil {
		t.Fatalf("readServiceCode: %v", err)
	}
	if got != "A B C " {
		t.Fatalf("got %q, want %q", got, "A B C ")
	}
}

func TestReadNumberOrStringFieldAcceptsBoth(t *testing.T) {
	src := NewSource(strings.NewReader(`[9.99, "9.99"]`))
	if err := expect(src, ArrayStart); err != nil {
		t.Fatalf("expect: %v", err)
	}
	n, err := readNumberOrStringField(src)
	if err != nil || n != "9.99" {
		t.Fatalf("got %q, %v, want 9.99", n, err)
	}
	s, err := readNumberOrStringField(src)
	if err != nil || s != "9.99" {
		t.Fatalf("got %q, %v, want 9.99", s, err)
	}
}
