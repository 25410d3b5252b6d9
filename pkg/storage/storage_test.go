package storage

import "testing"

func TestNormalizeGitURL(t *testing.T) {
	cases := map[string]string{
		"https://github.com/user/repo.git": "github.com/user/repo",
		"https://github.com/user/repo":     "github.com/user/repo",
		"git@github.com:user/repo.git":     "github.com/user/repo",
		"ssh://git@github.com/user/repo":   "github.com/user/repo",
	}
	for in, want := range cases {
		if got := normalizeGitURL(in); got != want {
			t.Errorf("normalizeGitURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHashPrefixLength(t *testing.T) {
	id := hashPrefix("github.com/user/repo")
	if len(id) != 16 {
		t.Fatalf("expected 16 hex chars, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("expected lowercase hex, got %q", id)
		}
	}
}

func TestProjectIdentifierStableForSamePath(t *testing.T) {
	dir := t.TempDir()
	a, err := ProjectIdentifier(dir)
	if err != nil {
		t.Fatalf("ProjectIdentifier: %v", err)
	}
	b, err := ProjectIdentifier(dir)
	if err != nil {
		t.Fatalf("ProjectIdentifier: %v", err)
	}
	if a != b {
		t.Fatalf("expected stable id, got %q then %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-char id, got %q", a)
	}
}

func TestRootsLayout(t *testing.T) {
	r := Roots{Base: "/data/octobrain", ProjectID: "abc123"}
	if r.ConfigPath() != "/data/octobrain/config.toml" {
		t.Errorf("unexpected config path: %s", r.ConfigPath())
	}
	if r.StorageDir() != "/data/octobrain/abc123/storage" {
		t.Errorf("unexpected storage dir: %s", r.StorageDir())
	}
	if r.LogsDir() != "/data/octobrain/abc123/logs" {
		t.Errorf("unexpected logs dir: %s", r.LogsDir())
	}
}
