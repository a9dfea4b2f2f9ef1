package safety

import "testing"

func TestValidateURLRejectsPrivateIP(t *testing.T) {
	for _, u := range []string{
		"http://127.0.0.1/",
		"http://10.1.2.3/x",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data",
	} {
		if err := ValidateURL(u); err == nil {
			t.Errorf("expected ValidateURL(%q) to fail", u)
		}
	}
}

func TestValidateURLRejectsBadScheme(t *testing.T) {
	if err := ValidateURL("ftp://example.com/"); err != ErrUnsafeScheme {
		t.Fatalf("expected ErrUnsafeScheme, got %v", err)
	}
}

func TestValidateURLAllowsPublicHTTPS(t *testing.T) {
	if err := ValidateURL("https://example.com/product/1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
