package auth

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	digest, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if digest == "pw123456" {
		t.Fatal("digest must not equal the plaintext")
	}

	if !CheckPassword("pw123456", digest) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrongpw", digest) {
		t.Error("wrong password accepted")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	d1, _ := HashPassword("same-password")
	d2, _ := HashPassword("same-password")
	if d1 == d2 {
		t.Error("two hashes of the same password must differ (salt)")
	}
}

func TestCheckPassword_MalformedDigest(t *testing.T) {
	for _, digest := range []string{"", "not-a-bcrypt-digest", "$2a$"} {
		if CheckPassword("anything", digest) {
			t.Errorf("malformed digest %q accepted", digest)
		}
	}
}
