package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateSecret(t *testing.T) {
	tests := []struct {
		secret string
		ok     bool
	}{
		{"abc123", true},
		{"UPPER_lower_0", true},
		{"_", true},
		{"", false},
		{"has space", false},
		{"кириллица", false},
		{"semi;colon", false},
		{"dash-ed", false},
	}
	for _, tt := range tests {
		err := ValidateSecret(tt.secret)
		if tt.ok && err != nil {
			t.Errorf("ValidateSecret(%q) = %v, want nil", tt.secret, err)
		}
		if !tt.ok && !errors.Is(err, ErrBadSecretForm) {
			t.Errorf("ValidateSecret(%q) = %v, want ErrBadSecretForm", tt.secret, err)
		}
	}
}

func TestHashAndCheckSecret(t *testing.T) {
	hash, err := HashSecret("secret123")
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("secret stored in the clear")
	}

	if err := CheckSecret(hash, "secret123"); err != nil {
		t.Errorf("CheckSecret with correct secret = %v, want nil", err)
	}
	if err := CheckSecret(hash, "wrong"); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("CheckSecret with wrong secret = %v, want ErrInvalidSecret", err)
	}

	if _, err := HashSecret("bad secret"); !errors.Is(err, ErrBadSecretForm) {
		t.Errorf("HashSecret with bad form = %v, want ErrBadSecretForm", err)
	}
}

func TestInviteRoundTrip(t *testing.T) {
	m := NewInviteManager("test-key", time.Hour)

	token, err := m.Generate("group-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	groupID, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if groupID != "group-1" {
		t.Errorf("group = %q, want group-1", groupID)
	}
}

func TestInviteRejectsTampering(t *testing.T) {
	m := NewInviteManager("test-key", time.Hour)

	token, err := m.Generate("group-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// A token signed with another key fails.
	other := NewInviteManager("other-key", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("foreign key Validate = %v, want ErrInvalidInvite", err)
	}

	// A mangled payload fails.
	parts := strings.Split(token, ".")
	mangled := parts[0] + ".eyJncm91cF9pZCI6ImV2aWwifQ." + parts[2]
	if _, err := m.Validate(mangled); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("mangled Validate = %v, want ErrInvalidInvite", err)
	}

	if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("garbage Validate = %v, want ErrInvalidInvite", err)
	}
}

func TestInviteExpiry(t *testing.T) {
	m := NewInviteManager("test-key", -time.Minute)

	token, err := m.Generate("group-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("expired Validate = %v, want ErrInvalidInvite", err)
	}
}
