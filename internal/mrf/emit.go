package mrf

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const csvHeader = "npi,tin_type,tin_value,group_id,negotiation_arrangement,name,billing_code_type,billing_code_type_version,billing_code,description,negotiated_type,negotiated_rate,expiration_date,service_code,billing_class,billing_code_modifier"

// Emitter writes the fixed 16-field row shape to its sink (spec §4.H),
// printing the header lazily before the first row. It is the sole
// writer of its sink and flushes after the header and after every
// emitted in_network element (spec §5).
type Emitter struct {
	w          *bufio.Writer
	headerDone bool
}

// NewEmitter wraps w for buffered writes.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w)}
}

func (e *Emitter) ensureHeader() error {
	if e.headerDone {
		return nil
	}
	if _, err := e.w.WriteString(csvHeader + "\n"); err != nil {
		return err
	}
	e.headerDone = true
	return e.w.Flush()
}

// EmitElement writes one row per (rate, reference, provider-tuple,
// price) for one matching in_network element, in the order fixed by
// spec §4.H, then flushes. It calls q.LogRef for every surviving
// reference and q.LogCode once for the element's billing code.
func (e *Emitter) EmitElement(net *network, idx *Index, q *Query) error {
	if err := e.ensureHeader(); err != nil {
		return err
	}

	var b strings.Builder
	for _, r := range net.rates {
		for _, ref := range r.refs {
			for _, tuple := range idx.Refs[ref] {
				for _, p := range r.prices {
					b.Reset()
					b.WriteString(tuple)
					b.WriteByte(',')
					b.WriteString(strconv.FormatUint(ref, 10))
					b.WriteByte(',')
					b.WriteString(net.negotiationArrangement)
					b.WriteByte(',')
					b.WriteString(net.name)
					b.WriteByte(',')
					b.WriteString(net.billingCodeType)
					b.WriteByte(',')
					b.WriteString(net.billingCodeTypeVersion)
					b.WriteByte(',')
					b.WriteString(net.billingCode)
					b.WriteByte(',')
					b.WriteString(net.description)
					b.WriteByte(',')
					b.WriteString(p.NegotiatedType)
					b.WriteByte(',')
					b.WriteString(p.NegotiatedRate)
					b.WriteByte(',')
					b.WriteString(p.ExpirationDate)
					b.WriteByte(',')
					b.WriteString(p.ServiceCode)
					b.WriteByte(',')
					b.WriteString(p.BillingClass)
					b.WriteByte(',')
					b.WriteString(p.BillingCodeModifier)
					b.WriteByte('\n')
					if _, err := e.w.WriteString(b.String()); err != nil {
						return err
					}
				}
			}
			q.LogRef(ref)
		}
	}
	q.LogCode(net.billingCode, strings.ToUpper(net.billingCodeType))
	return e.w.Flush()
}
