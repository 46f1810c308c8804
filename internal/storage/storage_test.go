package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenRegistersShaders(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "Base.vert.spv", []byte{0x03, 0x02, 0x23, 0x07})
	writeFixture(t, dir, "Base.frag.spv", []byte{0x03, 0x02, 0x23, 0x07, 0x00})
	writeFixture(t, dir, "notes.txt", []byte("ignored"))

	s := New()
	if err := s.Open(dir); err != nil {
		t.Fatalf("open: %v", err)
	}

	var count int
	seen := map[uint64]bool{}
	for _, a := range s.Assets {
		for _, r := range a.Resources {
			count++
			if r.Kind() != KindShader {
				t.Errorf("%s registered as %v, want shader", r.Name, r.Kind())
			}
			if seen[r.ID] {
				t.Errorf("duplicate id %d", r.ID)
			}
			seen[r.ID] = true
		}
	}
	if count != 2 {
		t.Fatalf("registered %d resources, want 2", count)
	}
}

func TestGetShaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := []byte{0x03, 0x02, 0x23, 0x07, 0xde, 0xad}
	writeFixture(t, dir, "Base.vert.spv", payload)

	s := New()
	if err := s.Open(dir); err != nil {
		t.Fatalf("open: %v", err)
	}

	id := ResourceID(KindShader, "Base.vert.spv")
	shader, ok := s.GetShader(id)
	if !ok {
		t.Fatal("registered shader not found")
	}
	if !bytes.Equal(shader.Binary, payload) {
		t.Errorf("binary mismatch: got %v, want %v", shader.Binary, payload)
	}
	if shader.Type != ShaderVertex {
		t.Errorf("type = %v, want vertex", shader.Type)
	}
}

func TestGetShaderCachesPayload(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "Base.frag.spv", []byte{1, 2, 3, 4})

	s := New()
	if err := s.Open(dir); err != nil {
		t.Fatalf("open: %v", err)
	}

	id := ResourceID(KindShader, "Base.frag.spv")
	first, ok := s.GetShader(id)
	if !ok {
		t.Fatal("first get missed")
	}
	second, ok := s.GetShader(id)
	if !ok {
		t.Fatal("second get missed")
	}
	if s.Reads() != 1 {
		t.Errorf("reads = %d, want 1", s.Reads())
	}
	if first != second {
		t.Error("second get returned a different payload")
	}
}

func TestGetShaderUnknownID(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "Base.vert.spv", []byte{1})

	s := New()
	if err := s.Open(dir); err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok := s.GetShader(0xdeadbeef); ok {
		t.Error("unregistered id produced a payload")
	}
}

func TestGetShaderReadFailure(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "Base.vert.spv", []byte{1})

	s := New()
	if err := s.Open(dir); err != nil {
		t.Fatalf("open: %v", err)
	}
	s.readFile = func(string) ([]byte, error) {
		return nil, os.ErrPermission
	}

	id := ResourceID(KindShader, "Base.vert.spv")
	if _, ok := s.GetShader(id); ok {
		t.Error("failed read produced a payload")
	}
	if s.Reads() != 0 {
		t.Errorf("reads = %d, want 0", s.Reads())
	}
}

func TestOpenSkipsMissingRoot(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "Base.vert.spv", []byte{1})

	s := New()
	if err := s.Open(filepath.Join(dir, "nope"), dir); err != nil {
		t.Fatalf("open with one missing root: %v", err)
	}
}

func TestOpenFailsWithoutResources(t *testing.T) {
	s := New()
	if err := s.Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("open succeeded with no roots present")
	}

	s = New()
	if err := s.Open(t.TempDir()); err == nil {
		t.Error("open succeeded with an empty root")
	}
}

func TestShaderTypeOf(t *testing.T) {
	cases := []struct {
		name string
		want ShaderType
	}{
		{"Base.vert.spv", ShaderVertex},
		{"Base.frag.spv", ShaderFragment},
		{"Grass.geom.spv", ShaderGeometry},
		{"Base.spv", ShaderUnknown},
	}
	for _, c := range cases {
		if got := shaderTypeOf(c.name); got != c.want {
			t.Errorf("shaderTypeOf(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestResourceID(t *testing.T) {
	a := ResourceID(KindShader, "Base.vert.spv")
	b := ResourceID(KindShader, "Base.vert.spv")
	if a != b {
		t.Error("same kind and name produced different ids")
	}
	if ResourceID(KindShader, "tree.png") == ResourceID(KindImage, "tree.png") {
		t.Error("kinds do not namespace the id")
	}
	if ResourceID(KindShader, "Base.vert.spv") == ResourceID(KindShader, "Base.frag.spv") {
		t.Error("different names produced the same id")
	}
}
