package lastquery

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSelection turns selection arguments into 1-indexed result numbers in
// first-mention order, dropping repeats.
func parseSelection(args []string, count int) ([]int, error) {
	var parts []string
	for _, arg := range args {
		parts = append(parts, strings.FieldsFunc(arg, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no numbers provided", ErrInvalidNumber)
	}

	var nums []int
	seen := make(map[int]bool)
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}

	for _, part := range parts {
		lo, hi, err := parseSpan(part, count)
		if err != nil {
			return nil, err
		}
		for _, n := range []int{lo, hi} {
			if n > count {
				return nil, fmt.Errorf("%w: %d (valid range: 1-%d)", ErrNumberOutOfRange, n, count)
			}
		}
		for n := lo; n <= hi; n++ {
			add(n)
		}
	}
	return nums, nil
}

// parseSpan parses "n", "a-b" or "a-".
func parseSpan(s string, count int) (int, int, error) {
	start, end, isRange := strings.Cut(s, "-")
	lo, err := positive(start)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return lo, lo, nil
	}
	hi := count
	if end != "" {
		if hi, err = positive(end); err != nil {
			return 0, 0, err
		}
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("%w: range %s ends before it starts", ErrInvalidNumber, s)
	}
	return lo, hi, nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidNumber, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidNumber, n)
	}
	return n, nil
}
