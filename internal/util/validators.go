package util

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tabla oficial de letras de control: letra = alfabeto[número mod 23].
const dniLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

var (
	dniRegex    = regexp.MustCompile(`^(\d{8})([A-Z])$`)
	nieRegex    = regexp.MustCompile(`^([XYZ])(\d{7})([A-Z])$`)
	postalRegex = regexp.MustCompile(`^\d{5}$`)
	phoneRegex  = regexp.MustCompile(`^(\+34)?[6789]\d{8}$`)
	spaceRegex  = regexp.MustCompile(`\s+`)

	// Abreviaturas habituales de tipo de vía, reducidas a una forma canónica
	// para que "C/ Mayor" y "Calle Mayor" generen la misma huella.
	streetPrefixes = []struct {
		pattern *regexp.Regexp
		canon   string
	}{
		{regexp.MustCompile(`(?i)^(calle|c/|c\.|cl\.)\s*`), "c "},
		{regexp.MustCompile(`(?i)^(avenida|av/|av\.|avda\.)\s*`), "av "},
		{regexp.MustCompile(`(?i)^(plaza|pl/|pl\.)\s*`), "pl "},
		{regexp.MustCompile(`(?i)^(paseo|ps/|ps\.)\s*`), "ps "},
		{regexp.MustCompile(`(?i)^(urbanizacion|urb\.)\s*`), "urb "},
		{regexp.MustCompile(`(?i)^(camino|cm\.)\s*`), "cm "},
	}

	diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// ValidateDNI comprueba un DNI español (8 dígitos + letra de control).
func ValidateDNI(dni string) bool {
	m := dniRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(dni)))
	if m == nil {
		return false
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return m[2] == string(dniLetters[number%23])
}

// ValidateNIE comprueba un NIE español (X/Y/Z + 7 dígitos + letra).
func ValidateNIE(nie string) bool {
	m := nieRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(nie)))
	if m == nil {
		return false
	}

	prefix := "0"
	switch m[1] {
	case "Y":
		prefix = "1"
	case "Z":
		prefix = "2"
	}

	number, err := strconv.Atoi(prefix + m[2])
	if err != nil {
		return false
	}
	return m[3] == string(dniLetters[number%23])
}

// ValidateDocument acepta DNI o NIE.
func ValidateDocument(doc string) bool {
	return ValidateDNI(doc) || ValidateNIE(doc)
}

// NormalizeDocument deja el documento en su forma canónica de almacenamiento.
func NormalizeDocument(doc string) string {
	return strings.ToUpper(strings.TrimSpace(doc))
}

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeAddress reduce los componentes de una dirección a una cadena
// determinista: minúsculas, sin acentos, espacios colapsados y tipo de vía
// canónico. Direcciones cosméticamente distintas de la misma vivienda
// producen la misma cadena.
func NormalizeAddress(street, number, postalCode, floor, door string) string {
	s := strings.ToLower(street)
	s = stripDiacritics(s)
	s = spaceRegex.ReplaceAllString(s, " ")
	for _, p := range streetPrefixes {
		if p.pattern.MatchString(s) {
			s = p.pattern.ReplaceAllString(s, p.canon)
			break
		}
	}
	s = strings.TrimSpace(s)

	parts := []string{
		s,
		strings.ToLower(strings.TrimSpace(number)),
		strings.TrimSpace(postalCode),
		strings.ToLower(strings.TrimSpace(floor)),
		strings.ToLower(strings.TrimSpace(door)),
	}
	return strings.Join(parts, "|")
}

// AddressFingerprint es el hash SHA-256 de la dirección normalizada, usado
// para imponer un registro por vivienda.
func AddressFingerprint(street, number, postalCode, floor, door string) string {
	normalized := NormalizeAddress(street, number, postalCode, floor, door)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ValidatePostalCode comprueba un código postal español de 5 dígitos.
func ValidatePostalCode(cp string) bool {
	return postalRegex.MatchString(strings.TrimSpace(cp))
}

// ValidatePhone comprueba un teléfono español; el campo es opcional.
func ValidatePhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phoneRegex.MatchString(spaceRegex.ReplaceAllString(phone, ""))
}

// MaskDNI censura un documento para la vista pública del certificado:
// conserva los últimos tres dígitos y la letra.
func MaskDNI(dni string) string {
	if len(dni) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(dni)-4) + dni[len(dni)-4:]
}
