package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidInput is wrapped by every error in this package; handlers map it to 400.
var ErrInvalidInput = errors.New("invalid input")

// ErrCityEmpty is returned when city is empty or whitespace-only after trim.
var ErrCityEmpty = fmt.Errorf("%w: city is required", ErrInvalidInput)

// ErrCityTooShort is returned when city length is below the minimum.
var ErrCityTooShort = fmt.Errorf("%w: city too short", ErrInvalidInput)

// ErrCityTooLong is returned when city length exceeds the maximum.
var ErrCityTooLong = fmt.Errorf("%w: city too long", ErrInvalidInput)

// ErrCityInvalidChars is returned when city contains disallowed characters.
var ErrCityInvalidChars = fmt.Errorf("%w: city contains invalid characters", ErrInvalidInput)

var (
	ErrPlaceIDRequired        = fmt.Errorf("%w: place id is required", ErrInvalidInput)
	ErrPlaceIDInvalid         = fmt.Errorf("%w: place id is malformed", ErrInvalidInput)
	ErrPhotoReferenceRequired = fmt.Errorf("%w: photo reference is required", ErrInvalidInput)
	ErrPhotoReferenceInvalid  = fmt.Errorf("%w: photo reference is malformed", ErrInvalidInput)
	ErrPlaceTypeInvalid       = fmt.Errorf("%w: type is malformed", ErrInvalidInput)
	ErrQueryTooLong           = fmt.Errorf("%w: query too long", ErrInvalidInput)
	ErrQueryInvalidChars      = fmt.Errorf("%w: query contains control characters", ErrInvalidInput)
	ErrClientIDRequired       = fmt.Errorf("%w: X-Client-ID header is required", ErrInvalidInput)
	ErrClientIDInvalid        = fmt.Errorf("%w: X-Client-ID header is malformed", ErrInvalidInput)
)

const (
	maxPlaceIDLen        = 512
	maxPhotoReferenceLen = 2048
	maxPlaceTypeLen      = 64
	maxClientIDLen       = 128

	// DefaultMaxWidth is used when maxwidth is absent or not a number.
	DefaultMaxWidth = 400
	// MaxMaxWidth is the largest width the places provider serves.
	MaxMaxWidth = 1600
)

// ValidateCity trims the input, enforces length bounds (minLen, maxLen in runes),
// and restricts to allowed characters: letters (Unicode), digits, space, comma,
// hyphen, period. Returns the trimmed string.
func ValidateCity(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrCityEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrCityTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.':
		return true
	}
	return false
}

// ValidatePlaceID accepts upstream ids and mock ids: ASCII letters, digits, '_' and '-'.
func ValidatePlaceID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrPlaceIDRequired
	}
	if len(id) > maxPlaceIDLen || !isToken(id) {
		return "", ErrPlaceIDInvalid
	}
	return id, nil
}

// ValidatePhotoReference applies the same token rules as place ids with a longer bound.
func ValidatePhotoReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrPhotoReferenceRequired
	}
	if len(ref) > maxPhotoReferenceLen || !isToken(ref) {
		return "", ErrPhotoReferenceInvalid
	}
	return ref, nil
}

func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// ParseMaxWidth reads the photo maxwidth parameter. Absent or non-numeric
// values give DefaultMaxWidth; numbers are clamped to 1..MaxMaxWidth.
func ParseMaxWidth(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultMaxWidth
	}
	if n < 1 {
		return 1
	}
	if n > MaxMaxWidth {
		return MaxMaxWidth
	}
	return n
}

// NormalizePlaceType lowercases a type selector. Empty and "all" both mean no
// type filter and come back as "all".
func NormalizePlaceType(raw string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" || t == "all" {
		return "all", nil
	}
	if len(t) > maxPlaceTypeLen {
		return "", ErrPlaceTypeInvalid
	}
	for _, c := range t {
		if (c < 'a' || c > 'z') && c != '_' {
			return "", ErrPlaceTypeInvalid
		}
	}
	return t, nil
}

// ValidateQuery trims a free-text query and rejects control characters.
// Empty is valid.
func ValidateQuery(q string, maxLen int) (string, error) {
	q = strings.TrimSpace(q)
	if maxLen > 0 && len([]rune(q)) > maxLen {
		return "", ErrQueryTooLong
	}
	for _, c := range q {
		if unicode.IsControl(c) {
			return "", ErrQueryInvalidChars
		}
	}
	return q, nil
}

// ValidateClientID checks the opaque favorites owner id.
func ValidateClientID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrClientIDRequired
	}
	if len(id) > maxClientIDLen {
		return "", ErrClientIDInvalid
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !isToken(string(c)) && c != '.' {
			return "", ErrClientIDInvalid
		}
	}
	return id, nil
}
