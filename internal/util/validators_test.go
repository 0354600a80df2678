package util

import (
	"strings"
	"testing"
)

func TestValidateDNI(t *testing.T) {
	cases := []struct {
		dni   string
		valid bool
	}{
		{"12345678Z", true},  // 12345678 mod 23 = 14 -> Z
		{"00000000T", true},  // 0 mod 23 = 0 -> T
		{"00000023T", true},  // 23 mod 23 = 0 -> T
		{"12345678z", true},  // minúsculas se aceptan
		{" 12345678Z ", true},
		{"12345678A", false}, // letra de control incorrecta
		{"1234567Z", false},  // faltan dígitos
		{"123456789Z", false},
		{"12345678", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ValidateDNI(tc.dni); got != tc.valid {
			t.Errorf("ValidateDNI(%q) = %v, want %v", tc.dni, got, tc.valid)
		}
	}
}

func TestValidateNIE(t *testing.T) {
	cases := []struct {
		nie   string
		valid bool
	}{
		{"X0000000T", true}, // X -> 0: 00000000 mod 23 = 0 -> T
		{"Y0000000Z", true}, // Y -> 1: 10000000 mod 23 = 14 -> Z
		{"Z0000000M", true}, // Z -> 2: 20000000 mod 23 = 5 -> M
		{"X0000000A", false},
		{"A0000000T", false}, // prefijo inválido
		{"X000000T", false},  // faltan dígitos
		{"", false},
	}

	for _, tc := range cases {
		if got := ValidateNIE(tc.nie); got != tc.valid {
			t.Errorf("ValidateNIE(%q) = %v, want %v", tc.nie, got, tc.valid)
		}
	}
}

func TestValidateDocument(t *testing.T) {
	if !ValidateDocument("12345678Z") {
		t.Error("expected DNI accepted")
	}
	if !ValidateDocument("X0000000T") {
		t.Error("expected NIE accepted")
	}
	if ValidateDocument("nonsense") {
		t.Error("expected garbage rejected")
	}
}

func TestAddressFingerprintEquivalences(t *testing.T) {
	base := AddressFingerprint("Calle Mayor", "12", "30001", "3", "B")

	equivalents := []struct {
		name   string
		street string
		number string
		floor  string
		door   string
	}{
		{"street abbreviation", "C/ Mayor", "12", "3", "B"},
		{"dot abbreviation", "c. Mayor", "12", "3", "B"},
		{"cl abbreviation", "CL. Mayor", "12", "3", "B"},
		{"case differences", "calle MAYOR", "12", "3", "b"},
		{"extra whitespace", "Calle   Mayor ", " 12", "3 ", " B"},
	}

	for _, tc := range equivalents {
		got := AddressFingerprint(tc.street, tc.number, "30001", tc.floor, tc.door)
		if got != base {
			t.Errorf("%s: expected same fingerprint for %q", tc.name, tc.street)
		}
	}

	// Los acentos no cambian la huella
	conAcento := AddressFingerprint("Calle José María", "1", "30001", "", "")
	sinAcento := AddressFingerprint("Calle Jose Maria", "1", "30001", "", "")
	if conAcento != sinAcento {
		t.Error("expected accents stripped from fingerprint")
	}

	// Piso o puerta distintos son viviendas distintas
	otherFloor := AddressFingerprint("Calle Mayor", "12", "30001", "4", "B")
	if otherFloor == base {
		t.Error("expected different fingerprint for different floor")
	}
	otherDoor := AddressFingerprint("Calle Mayor", "12", "30001", "3", "A")
	if otherDoor == base {
		t.Error("expected different fingerprint for different door")
	}
	otherNumber := AddressFingerprint("Calle Mayor", "14", "30001", "3", "B")
	if otherNumber == base {
		t.Error("expected different fingerprint for different number")
	}

	// "Avenida Mayor" no es "Calle Mayor"
	avenue := AddressFingerprint("Avenida Mayor", "12", "30001", "3", "B")
	if avenue == base {
		t.Error("expected different fingerprint for different street type")
	}
	if avenue != AddressFingerprint("Av. Mayor", "12", "30001", "3", "B") {
		t.Error("expected avenue abbreviation to match full form")
	}
}

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress("C/ José María", "12", "30001", "3º", "B")
	want := "c jose maria|12|30001|3º|b"
	// El ordinal º no es una marca diacrítica y se conserva
	if got != want {
		t.Errorf("NormalizeAddress = %q, want %q", got, want)
	}
}

func TestValidatePostalCode(t *testing.T) {
	if !ValidatePostalCode("30001") {
		t.Error("expected 30001 accepted")
	}
	if ValidatePostalCode("3001") || ValidatePostalCode("300011") || ValidatePostalCode("3000a") {
		t.Error("expected malformed postal codes rejected")
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"", "612345678", "912345678", "+34612345678", "612 345 678"}
	for _, p := range valid {
		if !ValidatePhone(p) {
			t.Errorf("expected %q accepted", p)
		}
	}
	invalid := []string{"12345", "512345678", "+33612345678x"}
	for _, p := range invalid {
		if ValidatePhone(p) {
			t.Errorf("expected %q rejected", p)
		}
	}
}

func TestMaskDNI(t *testing.T) {
	got := MaskDNI("12345678Z")
	if got == "12345678Z" {
		t.Fatal("expected masked document")
	}
	if !strings.HasSuffix(got, "678Z") {
		t.Errorf("expected last four characters kept, got %q", got)
	}
	if strings.Count(got, "*") != 5 {
		t.Errorf("expected five asterisks, got %q", got)
	}

	if MaskDNI("ab") != "****" {
		t.Error("expected full mask for short input")
	}
}
