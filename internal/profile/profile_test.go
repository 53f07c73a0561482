package profile

import (
	"strings"
	"testing"
)

func TestLoad_Builtins(t *testing.T) {
	for _, name := range []string{"general-radiology", "fetal-anatomy"} {
		p, err := Load(name)
		if err != nil {
			t.Errorf("Load(%q): %v", name, err)
			continue
		}
		if p.Name != name {
			t.Errorf("Load(%q).Name = %q", name, p.Name)
		}
		if p.SystemPromptAddendum == "" {
			t.Errorf("Load(%q) has empty prompt addendum", name)
		}
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("cardiac-mri")
	if err == nil {
		t.Fatal("Load(cardiac-mri) succeeded, want error")
	}
	if !strings.Contains(err.Error(), "cardiac-mri") {
		t.Errorf("error %q does not name the unknown profile", err)
	}
}

func TestFetalAnatomy_StrictUncertainty(t *testing.T) {
	p, err := Load("fetal-anatomy")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.StrictUncertainty {
		t.Error("fetal-anatomy should enforce strict uncertainty")
	}
}
