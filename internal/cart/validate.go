package cart

import (
	"unicode"
	"unicode/utf8"
)

// Validate checks a normalised item against the field constraints. It
// returns the first violation as a *ValidationError.
func Validate(it LineItem) error {
	if it.ProductName == "" {
		return invalid("productName", "is required")
	}
	if err := checkText("productName", it.ProductName, MaxProductNameLen); err != nil {
		return err
	}
	if it.Color == "" {
		return invalid("color", "is required")
	}
	if err := checkText("color", it.Color, MaxColorLen); err != nil {
		return err
	}
	if err := checkText("topLine", it.TopLine, MaxLineLen); err != nil {
		return err
	}
	if err := checkText("bottomLine", it.BottomLine, MaxLineLen); err != nil {
		return err
	}
	if err := checkText("dedication", it.Dedication, MaxDedicationLen); err != nil {
		return err
	}
	if !it.UnitPrice.IsPositive() {
		return invalid("price", "must be greater than zero")
	}
	if it.UnitPrice.Exponent() < -2 && !it.UnitPrice.Equal(it.UnitPrice.Round(2)) {
		return invalid("price", "must have at most two decimal places")
	}
	if it.Quantity < MinQuantity || it.Quantity > MaxQuantity {
		return QuantityRangeError(it.Quantity)
	}
	return nil
}

func checkText(field, v string, max int) error {
	if !utf8.ValidString(v) {
		return invalid(field, "is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(v); n > max {
		return invalid(field, "must be at most %d characters, got %d", max, n)
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return invalid(field, "must not contain control characters")
		}
	}
	return nil
}
