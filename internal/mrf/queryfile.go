package mrf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadQuery parses the query-file grammar (spec §6) from r into a new
// Query. Unindented lines are mode headers: the literal "npi", or any
// other string taken as a code_type. Indented lines are items under the
// current mode — decimal NPIs under "npi" mode, code values otherwise.
// Blank lines are ignored. An indented line before any mode header is
// fatal.
func ReadQuery(r io.Reader) (*Query, error) {
	q := &Query{}

	const (
		modeNone = iota
		modeNPI
		modeCode
	)
	mode := modeNone
	var codeType string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}

		indented := raw[0] == ' ' || raw[0] == '\t'
		trimmed := strings.TrimSpace(raw)

		if !indented {
			if trimmed == "npi" {
				mode = modeNPI
			} else {
				mode = modeCode
				codeType = trimmed
			}
			continue
		}

		if mode == modeNone {
			return nil, fmt.Errorf("query file line %d: item before any mode header", lineNo)
		}

		switch mode {
		case modeNPI:
			npi, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("query file line %d: invalid npi %q: %w", lineNo, trimmed, err)
			}
			q.AddProvider(npi)
		case modeCode:
			q.AddCode(codeType, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	return q, nil
}
