package mrf

import (
	"bytes"
	"strings"
	"testing"
)

func TestEmitterWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	if err := e.ensureHeader(); err != nil {
		t.Fatalf("ensureHeader: %v", err)
	}
	if err := e.ensureHeader(); err != nil {
		t.Fatalf("ensureHeader (second call): %v", err)
	}
	if strings.Count(buf.String(), csvHeader) != 1 {
		t.Fatalf("header written more than once: %q", buf.String())
	}
}

func TestEmitElementRowShapeAndLogging(t *testing.T) {
	q := newTestQuery(1701)
	q.Providers[0].GroupID = ptrUint64(11)
	q.Providers[0].TINType = ptrStr("ein")
	q.Providers[0].TINValue = ptrStr("101")
	q.AddCode("Type 1", "Code 1")
	idx := BuildIndex(q)

	net := &network{
		negotiationArrangement: "alpha",
		name:                   "Item 1",
		billingCodeType:        "Type 1",
		billingCodeTypeVersion: "2022",
		billingCode:            "CODE 1",
		description:            "Item 1",
		rates: []rate{
			{
				refs: []uint64{11},
				prices: []Price{{
					NegotiatedType: "neg type 1",
					NegotiatedRate: "9.99",
					ExpirationDate: "9999-12-31",
					ServiceCode:    "A B C ",
					BillingClass:   "class 1",
				}},
			},
		},
	}
	net.rates[0].prices[0].BillingCodeModifier = "null"

	var buf bytes.Buffer
	e := NewEmitter(&buf)
	if err := e.EmitElement(net, idx, q); err != nil {
		t.Fatalf("EmitElement: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row: %q", len(lines), buf.String())
	}
	want := "1701,ein,101,11,alpha,Item 1,Type 1,2022,CODE 1,Item 1,neg type 1,9.99,9999-12-31,A B C ,class 1,null"
	if lines[1] != want {
		t.Fatalf("got %q, want %q", lines[1], want)
	}
	if !q.Providers[0].Recorded {
		t.Error("expected EmitElement to mark the matched provider Recorded")
	}
	if !q.Codes[0].Recorded {
		t.Error("expected EmitElement to mark the matched code Recorded")
	}
}

func TestEmitElementFanOutAcrossTuplesAndPrices(t *testing.T) {
	q := newTestQuery(1701, 1801)
	q.Providers[0].GroupID = ptrUint64(11)
	q.Providers[0].TINType = ptrStr("ein")
	q.Providers[0].TINValue = ptrStr("101")
	q.Providers[1].GroupID = ptrUint64(11)
	q.Providers[1].TINType = ptrStr("ein")
	q.Providers[1].TINValue = ptrStr("202")
	idx := BuildIndex(q)

	net := &network{billingCode: "CODE 1", billingCodeType: "Type 1"}
	net.rates = []rate{{
		refs: []uint64{11},
		prices: []Price{
			{NegotiatedType: "t1"},
			{NegotiatedType: "t2"},
		},
	}}

	var buf bytes.Buffer
	e := NewEmitter(&buf)
	if err := e.EmitElement(net, idx, q); err != nil {
		t.Fatalf("EmitElement: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 { // header + 2 tuples x 2 prices
		t.Fatalf("got %d lines, want 5: %q", len(lines), buf.String())
	}
}

func ptrStr(s string) *string   { return &s }
func ptrUint64(n uint64) *uint64 { return &n }
