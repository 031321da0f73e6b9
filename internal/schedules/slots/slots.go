// Package slots generates candidate visit slots from a weekly operating-hours
// rule. All arithmetic happens on minutes-since-midnight integers; HH:MM
// strings only appear at the boundaries.
package slots

import (
	"fmt"
	"iter"
	"regexp"
)

var hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseHHMM converts a zero-padded 24h "HH:MM" string into minutes since
// midnight.
func ParseHHMM(s string) (int, error) {
	if !hhmmRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid HH:MM time: %q", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m, nil
}

// FormatHHMM renders minutes since midnight as zero-padded "HH:MM".
func FormatHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Sequence yields slot start times at step-minute intervals from opening
// (inclusive) up to closing (exclusive). A trailing partial interval is
// dropped: the last slot satisfies slot < closing, not slot+step <= closing,
// matching how the shelters advertise their hours. The sequence is lazy and
// restartable; ranging over it twice yields the same slots.
func Sequence(opening, closing, step int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if step <= 0 {
			return
		}
		for m := opening; m < closing; m += step {
			if !yield(FormatHHMM(m)) {
				return
			}
		}
	}
}

// Between is Sequence over parsed HH:MM bounds. An unparseable bound or a
// closing that does not follow the opening yields an error.
func Between(opening, closing string, step int) (iter.Seq[string], error) {
	o, err := ParseHHMM(opening)
	if err != nil {
		return nil, err
	}
	c, err := ParseHHMM(closing)
	if err != nil {
		return nil, err
	}
	if c <= o {
		return nil, fmt.Errorf("closing time %s must be after opening time %s", closing, opening)
	}
	return Sequence(o, c, step), nil
}

// Collect materializes a sequence; handy for responses and tests.
func Collect(seq iter.Seq[string]) []string {
	var out []string
	for s := range seq {
		out = append(out, s)
	}
	return out
}

// Count returns how many slots a rule produces without materializing them.
func Count(opening, closing, step int) int {
	if step <= 0 || closing <= opening {
		return 0
	}
	return (closing - opening + step - 1) / step
}
