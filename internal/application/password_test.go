package application

import (
	"errors"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("correct horse battery staple", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "not argon2id", hash: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "missing sections", hash: "$argon2id$v=19$m=65536,t=3,p=2"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := VerifyPassword(tc.hash, "whatever"); !errors.Is(err, ErrInvalidPasswordHash) {
				t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
			}
		})
	}
}
