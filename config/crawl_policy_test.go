package config

import "testing"

func TestCrawlPolicyNormalize(t *testing.T) {
	cfg := CrawlPolicyConfig{
		Allow:    []string{"Example.com", "https://news.example.org"},
		Disallow: []string{"www.Bad.com", "bad.com", " "},
	}

	norm := cfg.Normalize()
	if len(norm.Allow) != 2 || norm.Allow[0] != "example.com" || norm.Allow[1] != "news.example.org" {
		t.Fatalf("unexpected allow list: %#v", norm.Allow)
	}
	if len(norm.Disallow) != 1 || norm.Disallow[0] != "bad.com" {
		t.Fatalf("unexpected disallow list: %#v", norm.Disallow)
	}
}

func TestCrawlPolicyValidate(t *testing.T) {
	valid := CrawlPolicyConfig{Allow: []string{"example.com"}, Disallow: []string{"blocked.com"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	conflict := CrawlPolicyConfig{Allow: []string{"example.com"}, Disallow: []string{"www.example.com"}}
	if err := conflict.Validate(); err == nil {
		t.Fatalf("expected conflict validation error")
	}
}

func TestCrawlPolicyPermits(t *testing.T) {
	open := CrawlPolicyConfig{}
	if !open.Permits("https://anything.example/x") {
		t.Fatal("empty policy should permit everything")
	}

	deny := CrawlPolicyConfig{Disallow: []string{"pinterest.com"}}.Normalize()
	cases := map[string]bool{
		"https://www.pinterest.com/pin/1": false,
		"https://uk.pinterest.com/":       false,
		"https://notpinterest.com/":       true,
		"https://example.com/a.pdf":       true,
	}
	for u, want := range cases {
		if got := deny.Permits(u); got != want {
			t.Fatalf("Permits(%q) = %v, want %v", u, got, want)
		}
	}

	allow := CrawlPolicyConfig{Allow: []string{"gov.uk"}}.Normalize()
	if !allow.Permits("https://www.gov.uk/guidance") || allow.Permits("https://example.com") {
		t.Fatal("allow list not enforced")
	}
	if allow.Permits("") {
		t.Fatal("empty url must not be permitted under an allow list")
	}
}
