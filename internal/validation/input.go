package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength         = 3
	MaxUsernameLength         = 30
	MaxMemberNumberLength     = 64
	MaxDisputeDescriptionLen  = 5000
	MaxEvidenceLength         = 2000
	MaxResolutionLength       = 2000
	MinDeletionReasonLength   = 10
	MaxDeletionReasonLength   = 1000
	MaxTrustOverrideReasonLen = 500
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	// Базовая проверка формата
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	// Проверка на валидные символы в локальной части
	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	// Проверка на валидные символы в доменной части
	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	// Проверка длины
	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	// Проверка на допустимые символы (только буквы, цифры и подчеркивание)
	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	// Проверка, что не начинается с цифры
	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

var memberNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ./-]*$`)

// ValidateMemberNumber проверяет номер участника PRO: буквы, цифры, пробел, точка, дефис, слэш.
func ValidateMemberNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return fmt.Errorf("номер участника обязателен")
	}
	if err := ValidateLength("номер участника", number, 1, MaxMemberNumberLength); err != nil {
		return err
	}
	if !memberNumberRegex.MatchString(number) {
		return fmt.Errorf("номер участника содержит недопустимые символы")
	}
	return nil
}

// ValidateDisputeDescription проверяет описание спора.
func ValidateDisputeDescription(description string) error {
	if err := ValidateNonEmpty("описание спора", description); err != nil {
		return err
	}
	return ValidateLength("описание спора", strings.TrimSpace(description), 1, MaxDisputeDescriptionLen)
}

// ValidateEvidence проверяет необязательное поле доказательств.
func ValidateEvidence(evidence *string) error {
	if evidence == nil {
		return nil
	}
	return ValidateLength("доказательства", *evidence, 0, MaxEvidenceLength)
}

func ValidateResolution(resolution string) error {
	return ValidateLength("текст решения", strings.TrimSpace(resolution), 0, MaxResolutionLength)
}

func ValidateOverrideReason(reason string) error {
	return ValidateLength("причина", strings.TrimSpace(reason), 0, MaxTrustOverrideReasonLen)
}

// ValidateDeletionReason причина удаления аккаунта: не короче 10 символов.
func ValidateDeletionReason(reason string) error {
	return ValidateLength("причина удаления", strings.TrimSpace(reason), MinDeletionReasonLength, MaxDeletionReasonLength)
}
