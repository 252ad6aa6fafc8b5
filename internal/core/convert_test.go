package core

import "testing"

func TestParseScore(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"integer", "12", 12, true},
		{"decimal", "7.5", 7.5, true},
		{"negative", "-3", -3, true},
		{"surrounding space", "  12  ", 12, true},
		{"quoted", `"12"`, 12, true},
		{"excel formula", `="12"`, 12, true},
		{"decimal comma", "7,5", 7.5, true},
		{"european thousands", "1.234,5", 1234.5, true},
		{"us thousands", "1,234.5", 1234.5, true},
		{"full-width digits", "１２", 12, true},
		{"arabic-indic digits", "١٢", 12, true},
		{"arabic decimal separator", "٧٫٥", 7.5, true},
		{"persian digits", "۱۲", 12, true},
		{"devanagari digits", "१२", 12, true},
		{"unicode minus", "−3", -3, true},
		{"scientific", "1e2", 100, true},
		{"empty", "", 0, false},
		{"letters", "twelve", 0, false},
		{"trailing junk", "12abc", 0, false},
		{"NaN", "NaN", 0, false},
		{"infinity", "Inf", 0, false},
		{"overflow", "1e999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScore(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseScore(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseScore(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024-01-15", "2024-01-15"},
		{" 2024-01-15 ", "2024-01-15"},
		{"2024/01/15", "2024-01-15"},
		{"2024-1-5", "2024-01-05"},
		{"01/15/2024", "2024-01-15"},
		{"15.01.2024", "2024-01-15"},
		{"Jan 15, 2024", "2024-01-15"},
		{"20240115", "2024-01-15"},
		{"٢٠٢٤-٠١-١٥", "2024-01-15"},
		{"not a date", "not a date"},
		{"2024-02-30", "2024-02-30"},
	}

	for _, tt := range tests {
		if got := NormalizeDate(tt.input); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  phq-9 ", "phq-9"},
		{`"phq-9"`, "phq-9"},
		{`'phq-9'`, "phq-9"},
		{`="0012"`, "0012"},
		{"=12", "12"},
		{`=""`, ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
