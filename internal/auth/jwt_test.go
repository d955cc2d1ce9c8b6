package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	tok, exp, err := Issue("user-1", RoleInstructor, "rollcall", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(exp) < 55*time.Minute {
		t.Fatalf("expiry too close: %v", exp)
	}

	claims, err := Parse(tok, "secret", "rollcall")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != RoleInstructor {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejections(t *testing.T) {
	tok, _, err := Issue("user-1", RoleStudent, "rollcall", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := Parse(tok, "wrong-key", "rollcall"); err == nil {
		t.Error("Parse() with wrong key should fail")
	}
	if _, err := Parse(tok, "secret", "someone-else"); err == nil {
		t.Error("Parse() with issuer mismatch should fail")
	}
	if _, err := Parse("garbage", "secret", "rollcall"); err == nil {
		t.Error("Parse() of garbage should fail")
	}

	expired, _, err := Issue("user-1", RoleStudent, "rollcall", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := Parse(expired, "secret", "rollcall"); err == nil {
		t.Error("Parse() of expired token should fail")
	}
}

func TestCanOpenSession(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleInstructor, true},
		{RoleStaff, true},
		{RoleStudent, false},
		{"", false},
	}
	for _, tt := range tests {
		id := Identity{UserID: "u", Role: tt.role}
		if got := id.CanOpenSession(); got != tt.want {
			t.Errorf("CanOpenSession() with role %q = %v, want %v", tt.role, got, tt.want)
		}
	}
}
