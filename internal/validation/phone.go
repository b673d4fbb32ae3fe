// Package validation содержит функции валидации входных данных.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PasswordMinLength задаёт минимальную длину пароля без окружающих пробелов.
const PasswordMinLength = 6

// mongoliaCountryCode добавляется к восьмизначным местным номерам.
const mongoliaCountryCode = "976"

var phonePattern = regexp.MustCompile(`^\+\d{9,15}$`)

// NormalizePhone приводит номер телефона к формату E.164.
// Возвращает false, если результат не соответствует формату.
func NormalizePhone(input string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), r == '-', r == '(', r == ')', r == '.':
			return -1
		}
		return r
	}, input)

	switch {
	case strings.HasPrefix(cleaned, "+"):
	case strings.HasPrefix(cleaned, "00"):
		cleaned = "+" + cleaned[2:]
	case len(cleaned) == 8:
		cleaned = "+" + mongoliaCountryCode + cleaned
	default:
		cleaned = "+" + cleaned
	}

	if !IsValidPhone(cleaned) {
		return "", false
	}
	return cleaned, true
}

// IsValidPhone проверяет номер в формате E.164.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(password)) >= PasswordMinLength
}
