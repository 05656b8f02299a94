package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for catalog fields.
const (
	maxNameLen        = 120
	maxDescriptionLen = 1_000
)

// validateCandyName checks a catalog name and returns the first error found.
func validateCandyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Candy name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Candy name is too long (max 120 characters)."
	}
	return ""
}

// validateDescription checks the optional catalog description.
func validateDescription(description string) string {
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	return ""
}

// validateQuantity checks the amount added or removed in one action.
func validateQuantity(quantity int) string {
	if quantity < 1 {
		return "Quantity must be at least 1."
	}
	return ""
}

// validateCount checks an absolute tally count.
func validateCount(count int) string {
	if count < 0 {
		return "Count cannot be negative."
	}
	return ""
}

// validateMergePair checks the merge source/target selection.
func validateMergePair(sourceID, targetID int64) string {
	if sourceID < 1 || targetID < 1 {
		return "Pick two candies to merge."
	}
	if sourceID == targetID {
		return "Cannot merge a candy into itself."
	}
	return ""
}
