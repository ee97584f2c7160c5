package sketch

import (
	"errors"
	"strings"
	"testing"

	"holo-viewer/internal/shaderlib"
	"holo-viewer/scene"
)

func TestPatchHolographic(t *testing.T) {
	sh := &scene.Shader{Name: "standard", FragmentSource: shaderlib.StandardFragment()}
	u, err := PatchHolographic(sh)
	if err != nil {
		t.Fatal(err)
	}
	if sh.Uniforms["uTime"] != u.Time {
		t.Error("uTime must be registered on the shader")
	}
	if strings.Contains(sh.FragmentSource, patchTarget) {
		t.Error("IBL include was not replaced")
	}
	for _, want := range []string{
		"uniform float uTime;",
		"mat4 rotationMatrix(vec3 axis, float angle)",
		"rotate(reflectVec, vec3(1.0, 0.0, 0.0), uTime * 0.05)",
	} {
		if !strings.Contains(sh.FragmentSource, want) {
			t.Errorf("patched source is missing %q", want)
		}
	}
	if _, err := shaderlib.Build(sh.FragmentSource, nil); err != nil {
		t.Errorf("patched source does not resolve: %v", err)
	}
}

func TestPatchHolographicMissingTarget(t *testing.T) {
	sh := &scene.Shader{Name: "flat", FragmentSource: "void main() {}"}
	if _, err := PatchHolographic(sh); !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("expected ErrShaderCompile, got %v", err)
	}
	if sh.FragmentSource != "void main() {}" {
		t.Error("source must be untouched on failure")
	}
}

func TestValidatePatchUnknownChunk(t *testing.T) {
	src := shaderlib.StandardFragment() + "\n#include <no_such_chunk>\n"
	if err := ValidatePatch(src); !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("expected ErrShaderCompile, got %v", err)
	}
	if err := ValidatePatch(shaderlib.StandardFragment()); err != nil {
		t.Fatalf("standard fragment should validate: %v", err)
	}
}

func TestHoloMaterialReadyAfterCompile(t *testing.T) {
	env := &scene.Texture{Name: "env", Mapping: scene.PrefilteredReflectionMapping}
	hm := NewHoloMaterial(env, 1, 0.28)
	if hm.Ready() {
		t.Fatal("uniforms exist before compile")
	}
	if hm.Material.EnvMap != env || hm.Material.Metalness != 1 || hm.Material.Roughness != 0.28 {
		t.Errorf("unexpected material %+v", *hm.Material)
	}

	sh := &scene.Shader{Name: "holo", FragmentSource: shaderlib.StandardFragment()}
	if err := hm.Material.OnBeforeCompile(sh); err != nil {
		t.Fatal(err)
	}
	if !hm.Ready() {
		t.Fatal("expected uniforms after compile")
	}
	hm.Uniforms.Time.Value = 4
	if sh.Uniforms["uTime"].Value != 4 {
		t.Error("material handle and shader uniform must be shared")
	}

	var nilMat *HoloMaterial
	if nilMat.Ready() {
		t.Error("nil material cannot be ready")
	}
}
