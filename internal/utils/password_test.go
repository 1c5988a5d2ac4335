package utils

import "testing"

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"Abc1!x", true},
		{"Str0ng#Password", true},
		{"short", false},       // too short
		{"abc123!x", false},    // no uppercase
		{"Abcdef!x", false},    // no digit
		{"Abc123xx", false},    // no special character
		{"Abc 12!x", false},    // contains a space
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidatePassword(tc.pw); got != tc.ok {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tc.pw, got, tc.ok)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret1!", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "Secret1!") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "Secret1?") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-bcrypt-hash", "Secret1!") {
		t.Error("malformed hash accepted")
	}
}
