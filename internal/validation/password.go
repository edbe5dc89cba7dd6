package validation

import (
	"fmt"
	"unicode"
)

const (
	MinPasswordLength = 8
	// bcrypt игнорирует всё после 72 байт
	MaxPasswordBytes = 72
)

// ValidatePassword проверяет пароль на соответствие требованиям безопасности.
// Требования:
// - От 8 до 72 байт (ограничение bcrypt)
// - Должен содержать заглавные буквы
// - Должен содержать строчные буквы
// - Должен содержать цифры
// - Опционально: специальные символы
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("пароль должен быть не длиннее %d байт", MaxPasswordBytes)
	}

	var (
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("пароль должен содержать хотя бы одну заглавную букву")
	}
	if !hasLower {
		return fmt.Errorf("пароль должен содержать хотя бы одну строчную букву")
	}
	if !hasNumber {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}

	return nil
}
