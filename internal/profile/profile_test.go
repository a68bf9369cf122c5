package profile

import (
	"path/filepath"
	"testing"
)

func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	prev := configHome
	configHome = func() string { return home }
	t.Cleanup(func() { configHome = prev })
	return home
}

func TestSaveLoadListDelete(t *testing.T) {
	home := useTempHome(t)
	if got, want := Dir(), filepath.Join(home, "tmod-launcher", "profiles"); got != want {
		t.Fatalf("Dir=%q want=%q", got, want)
	}

	names, err := List()
	if err != nil || len(names) != 0 {
		t.Fatalf("List on empty home=(%v, %v)", names, err)
	}

	root := "/games/terraria"
	verbose := true
	if err := Save("steamdeck", &Profile{InstallRoot: &root, Verbose: &verbose}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p, err := Load("steamdeck")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.InstallRoot == nil || *p.InstallRoot != root {
		t.Fatalf("InstallRoot=%v want=%q", p.InstallRoot, root)
	}
	if p.Verbose == nil || !*p.Verbose {
		t.Fatalf("Verbose=%v want=true", p.Verbose)
	}
	if p.Repo != nil || p.GithubToken != nil || p.NonInteractive != nil {
		t.Fatalf("unset fields decoded as set: %+v", p)
	}

	names, err = List()
	if err != nil || len(names) != 1 || names[0] != "steamdeck" {
		t.Fatalf("List=(%v, %v)", names, err)
	}

	if err := Delete("steamdeck"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Load("steamdeck"); err == nil {
		t.Fatalf("Load succeeded after Delete")
	}
}
