package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !IsHashed(hash) {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}

	ok, rehash := CheckPassword(hash, "secret")
	if !ok || rehash {
		t.Errorf("expected match without rehash, got ok=%v rehash=%v", ok, rehash)
	}

	if ok, _ := CheckPassword(hash, "wrong"); ok {
		t.Error("expected mismatch for wrong password")
	}
}

func TestCheckPasswordLegacyPlainText(t *testing.T) {
	ok, rehash := CheckPassword("123", "123")
	if !ok || !rehash {
		t.Errorf("expected legacy match with rehash, got ok=%v rehash=%v", ok, rehash)
	}

	if ok, _ := CheckPassword("123", "1234"); ok {
		t.Error("expected mismatch for wrong legacy password")
	}
}

func TestCheckPasswordEmptyStored(t *testing.T) {
	if ok, _ := CheckPassword("", ""); ok {
		t.Error("empty stored password must never match")
	}
}
