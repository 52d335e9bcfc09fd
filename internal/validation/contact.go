package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ContactInfo — контактные данные клиента, как их ввёл пользователь.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Поля контакта.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// ErrorKind — причина, по которой поле не прошло проверку.
type ErrorKind string

const (
	KindRequired      ErrorKind = "required"
	KindTooShort      ErrorKind = "too_short"
	KindTooLong       ErrorKind = "too_long"
	KindInvalidChars  ErrorKind = "invalid_chars"
	KindInvalidFormat ErrorKind = "invalid_format"
)

const (
	nameMinLen = 2
	nameMaxLen = 50
)

// FieldError описывает одно нарушение. Это результат, а не ошибка Go.
type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result — итог проверки всех полей.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

var (
	nameChars      = regexp.MustCompile(`^[\p{L} '-]+$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)*\.[A-Za-z]{2,}$`)
	phonePattern   = regexp.MustCompile(`^\+?[1-9][0-9]{9,14}$`)
	phoneSeparator = strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "")
	nameStripper   = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "&", "")
)

// ValidateContact прогоняет все три валидатора и собирает все нарушения,
// не останавливаясь на первом.
func ValidateContact(info ContactInfo) Result {
	var errs []FieldError
	if fe := validateName(info.Name); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := validateEmail(info.Email); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := validatePhone(info.Phone); fe != nil {
		errs = append(errs, *fe)
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func validateName(name string) *FieldError {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return &FieldError{Field: FieldName, Kind: KindRequired, Message: "name is required"}
	case n < nameMinLen:
		return &FieldError{Field: FieldName, Kind: KindTooShort, Message: "name must be at least 2 characters"}
	case n > nameMaxLen:
		return &FieldError{Field: FieldName, Kind: KindTooLong, Message: "name must be at most 50 characters"}
	}
	if !nameChars.MatchString(name) {
		return &FieldError{Field: FieldName, Kind: KindInvalidChars, Message: "name may contain only letters, spaces, hyphens and apostrophes"}
	}
	return nil
}

func validateEmail(email string) *FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return &FieldError{Field: FieldEmail, Kind: KindRequired, Message: "email is required"}
	}
	if !emailPattern.MatchString(email) {
		return &FieldError{Field: FieldEmail, Kind: KindInvalidFormat, Message: "email address is invalid"}
	}
	return nil
}

func validatePhone(phone string) *FieldError {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return &FieldError{Field: FieldPhone, Kind: KindRequired, Message: "phone is required"}
	}
	if !phonePattern.MatchString(phoneSeparator.Replace(phone)) {
		return &FieldError{Field: FieldPhone, Kind: KindInvalidFormat, Message: "phone number must contain 10 to 15 digits"}
	}
	return nil
}

// Sanitize нормализует контакт перед сохранением: обрезает пробелы,
// вычищает из имени символы разметки и приводит email к нижнему регистру.
func Sanitize(info ContactInfo) ContactInfo {
	return ContactInfo{
		Name:  strings.TrimSpace(nameStripper.Replace(strings.TrimSpace(info.Name))),
		Email: strings.ToLower(strings.TrimSpace(info.Email)),
		Phone: strings.TrimSpace(info.Phone),
	}
}

// FormatPhone — только для отображения, в хранилище телефон остаётся как есть.
func FormatPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	d := string(digits)
	switch {
	case len(d) == 10:
		return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:]
	case len(d) == 11 && d[0] == '1':
		return "+1 (" + d[1:4] + ") " + d[4:7] + "-" + d[7:]
	default:
		return phone
	}
}
