package mrf

import "fmt"

// BypassValue reads and discards exactly one JSON value from src: a
// scalar is consumed in a single Next() call, an object or array is
// consumed down to its matching close by tracking curly/bracket depth
// independently. EOF while a structure is open is fatal (spec §4.B).
func BypassValue(src *Source) error {
	ev, err := src.Next()
	if err != nil {
		return err
	}
	switch ev.Kind {
	case ObjectStart:
		return skipToDepthZero(src, 1, 0)
	case ArrayStart:
		return skipToDepthZero(src, 0, 1)
	case EOF:
		return fmt.Errorf("bypassValue: unexpected eof")
	default:
		return nil
	}
}

// skipToDepthZero consumes events until both the open-curly depth cb
// and open-bracket depth sq return to zero.
func skipToDepthZero(src *Source, cb, sq int) error {
	for cb > 0 || sq > 0 {
		ev, err := src.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case ObjectStart:
			cb++
		case ObjectEnd:
			cb--
		case ArrayStart:
			sq++
		case ArrayEnd:
			sq--
		case EOF:
			return fmt.Errorf("skip: unexpected eof (cb=%d sq=%d)", cb, sq)
		}
	}
	return nil
}

// FFToEndOfObject abandons the object currently being walked, whose
// open brace has already been consumed (cb reflects events read since
// then, sq any arrays opened since). It consumes events until cb
// returns to zero, used to drop an in_network element that failed
// filtering after some of its keys have already been read.
func FFToEndOfObject(src *Source, cb, sq int) error {
	return skipToDepthZero(src, cb, sq)
}

// SkipArray discards an entire top-level array whose open bracket has
// already been consumed, used when the driver must abandon in_network
// without interpreting it (the reset protocol, spec §4.G).
func SkipArray(src *Source) error {
	return skipToDepthZero(src, 0, 1)
}
