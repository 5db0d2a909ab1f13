package conversation

import (
	"strconv"
)

// ExtractNumbers returns every maximal run of ASCII digits in text as an
// integer, in order of first appearance and without duplicates. Runs too
// long to fit in an int are skipped.
func ExtractNumbers(text string) []int {
	var numbers []int
	seen := make(map[int]bool)

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		n, err := strconv.Atoi(text[start:end])
		start = -1
		if err != nil || seen[n] {
			return
		}
		seen[n] = true
		numbers = append(numbers, n)
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return numbers
}

// ParseTurnNumbers converts the 1-based turn numbers found in a model reply
// into 0-based positions. The positions are not range checked: the reply may
// mention turns that do not exist.
func ParseTurnNumbers(text string) []int {
	numbers := ExtractNumbers(text)
	if len(numbers) == 0 {
		return nil
	}

	indices := make([]int, len(numbers))
	for i, n := range numbers {
		indices[i] = n - 1
	}
	return indices
}
