package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"plain text", "  felt fine today  ", "felt fine today"},
		{"script tag", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"javascript protocol", "javascript:doEvil()", "doEvil()"},
		{"mixed case protocol", "JaVaScRiPt : x", "x"},
		{"event handler", `img onerror=alert(1)`, "img alert(1)"},
		{"data uri", "data:text/html;base64,xyz", "text/html;base64,xyz"},
		{"spliced protocol", "javajavascript:script:x", "x"},
		{"integer", 42, "42"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeInput(tt.input); got != tt.want {
				t.Errorf("SanitizeInput(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeInput_NoAngleBrackets(t *testing.T) {
	got := SanitizeInput("<script>alert(1)</script>")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("SanitizeInput left angle brackets: %q", got)
	}
}

func TestSanitizeInput_Idempotent(t *testing.T) {
	inputs := []string{`he said "hi", ok`, "<b>bold</b>", "on  = off", "a > b"}
	for _, in := range inputs {
		once := SanitizeInput(in)
		if twice := SanitizeInput(once); twice != once {
			t.Errorf("SanitizeInput not stable for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML(`<a href="x">Tom & "Jerry"</a>`)
	want := `&lt;a href=&#34;x&#34;&gt;Tom &amp; &#34;Jerry&#34;&lt;/a&gt;`
	if got != want {
		t.Errorf("SanitizeHTML() = %q, want %q", got, want)
	}
}

func TestContainsMaliciousContent(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"javascript:doEvil()", true},
		{"hello world", false},
		{"<script src=x></script>", true},
		{"<IFRAME src=x>", true},
		{"<object data=x>", true},
		{"<embed src=x>", true},
		{"<form action=x>", true},
		{`<img src=x onerror="alert(1)">`, true},
		{"eval(payload)", true},
		{"new Function('return 1')", true},
		{"setTimeout(run, 10)", true},
		{"felt tired, but ok", false},
		{"evaluation went well", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ContainsMaliciousContent(tt.input); got != tt.want {
			t.Errorf("ContainsMaliciousContent(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestRateLimiter_WindowSemantics(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(3, time.Minute)
	limiter.now = clock.Now

	for i := 0; i < 3; i++ {
		d := limiter.Allow()
		if !d.Allowed {
			t.Fatalf("call %d rejected, want allowed", i+1)
		}
		if d.Remaining != 2-i {
			t.Errorf("call %d Remaining = %d, want %d", i+1, d.Remaining, 2-i)
		}
		clock.now = clock.now.Add(time.Second)
	}

	d := limiter.Allow()
	if d.Allowed {
		t.Fatal("4th call within window allowed, want rejected")
	}
	if d.RetryAfter != 57*time.Second {
		t.Errorf("RetryAfter = %v, want 57s", d.RetryAfter)
	}

	clock.now = clock.now.Add(time.Minute)
	if !limiter.Allow().Allowed {
		t.Error("call after window elapsed rejected, want allowed")
	}
}

func TestRateLimiter_Do(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	limiter := NewRateLimiter(1, time.Second)
	limiter.now = clock.Now

	calls := 0
	op := func() error { calls++; return nil }

	if err := limiter.Do(op); err != nil {
		t.Fatalf("first Do() error = %v", err)
	}
	if err := limiter.Do(op); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second Do() error = %v, want ErrRateLimited", err)
	}
	if calls != 1 {
		t.Errorf("wrapped op called %d times, want 1", calls)
	}

	clock.now = clock.now.Add(2 * time.Second)
	if err := limiter.Do(op); err != nil {
		t.Errorf("Do() after window error = %v", err)
	}
}

func TestRateLimiter_InstancesIndependent(t *testing.T) {
	a := NewRateLimiter(1, time.Hour)
	b := NewRateLimiter(1, time.Hour)
	a.Allow()
	if !b.Allow().Allowed {
		t.Error("limiters share state")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	tok := GenerateSecureToken(16)
	if len(tok) != 32 {
		t.Errorf("len(token) = %d, want 32", len(tok))
	}
	if tok == GenerateSecureToken(16) {
		t.Error("two tokens are identical")
	}
	if GenerateSecureToken(0) != "" {
		t.Error("GenerateSecureToken(0) should be empty")
	}
}

func TestGenerateSecureToken_Fallback(t *testing.T) {
	orig := randRead
	defer func() { randRead = orig }()
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }

	if tok := GenerateSecureToken(8); len(tok) != 16 {
		t.Errorf("fallback token length = %d, want 16", len(tok))
	}
}

func TestConstantTimeEquals(t *testing.T) {
	if !ConstantTimeEquals("abc", "abc") {
		t.Error("equal strings reported different")
	}
	if ConstantTimeEquals("abc", "abd") {
		t.Error("different strings reported equal")
	}
	if ConstantTimeEquals("abc", "abcd") {
		t.Error("different lengths reported equal")
	}
}

func TestValidateAndSanitize(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		kind      InputKind
		opts      Options
		wantValid bool
		wantOut   string
	}{
		{"nil rejected", nil, KindText, Options{}, false, ""},
		{"malicious rejected", "javascript:x()", KindText, Options{}, false, ""},
		{"plain text trimmed", "  ok  ", KindText, Options{}, true, "ok"},
		{"html escaped", "a & b", KindHTML, Options{}, true, "a &amp; b"},
		{"digits only", "12a3", KindNumber, Options{}, true, "123"},
		{"valid date", "2024-01-15", KindDate, Options{}, true, "2024-01-15"},
		{"invalid date", "2024-13-01", KindDate, Options{}, false, "2024-13-01"},
		{"valid email", "me@example.com", KindEmail, Options{}, true, "me@example.com"},
		{"invalid email", "not-an-email", KindEmail, Options{}, false, "not-an-email"},
		{"too long", "abcdef", KindText, Options{MaxLength: 5}, false, "abcdef"},
		{"too short", "ab", KindText, Options{MinLength: 3}, false, "ab"},
		{"rune length", "ééééé", KindText, Options{MaxLength: 5}, true, "ééééé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAndSanitize(tt.input, tt.kind, tt.opts)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (error %q)", got.Valid, tt.wantValid, got.Error)
			}
			if got.Sanitized != tt.wantOut {
				t.Errorf("Sanitized = %q, want %q", got.Sanitized, tt.wantOut)
			}
			if !got.Valid && got.Error == "" {
				t.Error("invalid result has empty Error")
			}
		})
	}
}
