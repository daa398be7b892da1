package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

// Константы валидации
const (
	MinScammerHandleLength = 5
	MaxScammerHandleLength = 32
	MinAmountLength        = 1
	MaxAmountLength        = 32
	MinDescriptionLength   = 5
	MaxDescriptionLength   = 2048
	MinProofLinkLength     = 5
	MaxProofLinkLength     = 512
)

// Ник: начинается с буквы, 5-32 символа, буквы/цифры/подчёркивание.
// Запреты на "__" и "_" в конце проверяются отдельно: RE2 не умеет lookaround.
var scammerHandleRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return invalid("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return invalid("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateScammerHandle проверяет ник обвиняемого.
func ValidateScammerHandle(handle string) error {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return invalid("username is required")
	}

	if err := ValidateLength("username", handle, MinScammerHandleLength, MaxScammerHandleLength); err != nil {
		return err
	}

	if !scammerHandleRegex.MatchString(handle) {
		return invalid("username must start with a letter and contain only letters, digits and underscores")
	}

	if strings.Contains(handle, "__") {
		return invalid("username cannot contain consecutive underscores")
	}

	if strings.HasSuffix(handle, "_") {
		return invalid("username cannot end with an underscore")
	}

	return nil
}

// ValidateAmount проверяет сумму ущерба (свободный текст).
func ValidateAmount(amount string) error {
	return ValidateLength("amount", strings.TrimSpace(amount), MinAmountLength, MaxAmountLength)
}

// ValidateDescription проверяет описание.
func ValidateDescription(description string) error {
	return ValidateLength("description", strings.TrimSpace(description), MinDescriptionLength, MaxDescriptionLength)
}

// ValidateProofLink проверяет доказательство: ссылка или произвольная строка в пределах длины.
func ValidateProofLink(link string) error {
	return ValidateLength("proof link", strings.TrimSpace(link), MinProofLinkLength, MaxProofLinkLength)
}

func invalid(format string, args ...interface{}) error {
	return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf(format, args...))
}
