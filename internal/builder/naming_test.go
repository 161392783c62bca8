package builder

import (
	"testing"
	"time"
)

func TestGenerateImageName(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))

	tests := []struct {
		source string
		want   string
	}{
		{"/home/dev/myapp", "myapp:20240115143000"},
		{"/home/dev/My App/", "my-app:20240115143000"},
		{"/home/dev/Web_Site", "web_site:20240115143000"},
		{"/home/dev/--weird!!--", "weird:20240115143000"},
		{"/", "app:20240115143000"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := GenerateImageName(tt.source, now); got != tt.want {
				t.Errorf("GenerateImageName(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestSanitizeRepository_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}

	if got := sanitizeRepository(long); len(got) != 64 {
		t.Errorf("Expected 64 characters, got %d", len(got))
	}
}
