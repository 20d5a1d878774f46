package audit

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"alice@example.com": "a***@example.com",
		"not-an-email":       "***",
		"@example.com":       "***",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskJTI(t *testing.T) {
	if got := MaskJTI("short"); got != "short" {
		t.Errorf("MaskJTI(short) = %q", got)
	}
	long := "123456789abcdef"
	if got := MaskJTI(long); got != "12345678..." {
		t.Errorf("MaskJTI(long) = %q", got)
	}
}

func TestLoggerMethodsDoNotPanic(t *testing.T) {
	l := New(nil)
	l.LoginSuccess("user@example.com", 1)
	l.LoginFailure("user@example.com", "bad_password")
	l.TokenValidationFailure("token_expired", "abcdef0123456789")
	l.TokenRevoked("abcdef0123456789", 1)
	l.LogoutAll(1)
	l.PermissionDenied(1, "/admin/reliability")
	l.RateLimitExceeded("user:1", "/v1/test/next")
	l.PasswordResetInitiated("user@example.com")
	l.PasswordResetCompleted(1)
	l.PasswordResetFailed("token_expired")
	l.AccountCreated(1)
	l.AccountDeleted(1)
}
