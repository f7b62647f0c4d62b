// internal/taxid/checksum.go
package taxid

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty    = errors.New("tax ID is empty")
	ErrNotDigit = errors.New("tax ID must contain digits only")
	ErrLength   = errors.New("tax ID must be 10 digits (legal entity) or 12 digits (sole proprietor)")
	ErrChecksum = errors.New("tax ID checksum mismatch")
)

var (
	weights10  = []int{2, 4, 10, 3, 5, 9, 4, 6, 8}
	weights12a = []int{7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
	weights12b = []int{3, 7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
)

// ValidateChecksum checks the format and control digits of an INN.
func ValidateChecksum(inn string) error {
	if inn == "" {
		return ErrEmpty
	}
	digits := make([]int, len(inn))
	for i, r := range inn {
		if r < '0' || r > '9' {
			return ErrNotDigit
		}
		digits[i] = int(r - '0')
	}

	switch len(digits) {
	case 10:
		if controlDigit(digits, weights10) != digits[9] {
			return ErrChecksum
		}
	case 12:
		if controlDigit(digits, weights12a) != digits[10] {
			return fmt.Errorf("%w (first control digit)", ErrChecksum)
		}
		if controlDigit(digits, weights12b) != digits[11] {
			return fmt.Errorf("%w (second control digit)", ErrChecksum)
		}
	default:
		return ErrLength
	}
	return nil
}

func controlDigit(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	c := sum % 11
	if c > 9 {
		c %= 10
	}
	return c
}

// OrgType names the kind of taxpayer an INN of this length belongs to.
func OrgType(inn string) string {
	if len(inn) == 10 {
		return "Юридическое лицо"
	}
	return "Индивидуальный предприниматель"
}
