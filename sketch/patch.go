package sketch

import (
	"fmt"
	"strings"

	"holo-viewer/internal/shaderlib"
	"holo-viewer/scene"
)

// ReflectionSpin is the reflection rotation rate in radians per unit of
// accumulated time.
const ReflectionSpin = 0.05

const holoPrelude = `uniform float uTime;

mat4 rotationMatrix(vec3 axis, float angle) {
    axis = normalize(axis);
    float s = sin(angle);
    float c = cos(angle);
    float oc = 1.0 - c;

    return mat4(oc * axis.x * axis.x + c,          oc * axis.x * axis.y - axis.z * s, oc * axis.z * axis.x + axis.y * s, 0.0,
                oc * axis.x * axis.y + axis.z * s, oc * axis.y * axis.y + c,          oc * axis.y * axis.z - axis.x * s, 0.0,
                oc * axis.z * axis.x - axis.y * s, oc * axis.y * axis.z + axis.x * s, oc * axis.z * axis.z + c,          0.0,
                0.0,                               0.0,                               0.0,                               1.0);
}

vec3 rotate(vec3 v, vec3 axis, float angle) {
    mat4 m = rotationMatrix(axis, angle);
    return (m * vec4(v, 1.0)).xyz;
}
`

var holoIBL = fmt.Sprintf(`vec3 getIBLIrradiance(const in vec3 normal) {
    return PI * sampleEnvMap(normal, 1.0) * envMapIntensity;
}

vec3 getIBLRadiance(const in vec3 viewDir, const in vec3 normal, const in float roughness) {
    vec3 reflectVec = reflect(-viewDir, normal);
    reflectVec = normalize(mix(reflectVec, normal, roughness * roughness));
    reflectVec = rotate(reflectVec, vec3(1.0, 0.0, 0.0), uTime * %.2f);
    return sampleEnvMap(reflectVec, roughness) * envMapIntensity;
}
`, ReflectionSpin)

// patchTarget is the chunk whose routines get replaced.
var patchTarget = shaderlib.Include("envmap_physical_pars_fragment")

// HoloUniforms is the dynamic uniform set created by the patch.
type HoloUniforms struct {
	Time *scene.Uniform
}

// PatchHolographic injects the time uniform and rotation helpers into the
// fragment shader and replaces the IBL routines with ones that spin the
// reflection vector about +X. It returns the uniform handle the caller
// must keep to animate the material.
func PatchHolographic(sh *scene.Shader) (*HoloUniforms, error) {
	if !strings.Contains(sh.FragmentSource, patchTarget) {
		return nil, fmt.Errorf("%w: %s not found in %q fragment shader", ErrShaderCompile, patchTarget, sh.Name)
	}
	if sh.Uniforms == nil {
		sh.Uniforms = make(map[string]*scene.Uniform)
	}
	u := &HoloUniforms{Time: &scene.Uniform{Value: 0}}
	sh.Uniforms["uTime"] = u.Time

	sh.FragmentSource = holoPrelude + strings.Replace(sh.FragmentSource, patchTarget, holoIBL, 1)
	return u, nil
}

// ValidatePatch applies the patch to a scratch copy of fragmentSource and
// resolves the result, so a missing target fails before anything loads.
func ValidatePatch(fragmentSource string) error {
	sh := &scene.Shader{Name: "validate", FragmentSource: fragmentSource}
	if _, err := PatchHolographic(sh); err != nil {
		return err
	}
	if _, err := shaderlib.Resolve(sh.FragmentSource); err != nil {
		return fmt.Errorf("%w: %v", ErrShaderCompile, err)
	}
	return nil
}

// HoloMaterial is the model's material together with the uniforms its
// compile hook produced. Uniforms is nil until the material is compiled.
type HoloMaterial struct {
	Material *scene.StandardMaterial
	Uniforms *HoloUniforms
}

// NewHoloMaterial builds a metallic material lit by envMap whose
// reflections rotate with time.
func NewHoloMaterial(envMap *scene.Texture, metalness, roughness float32) *HoloMaterial {
	hm := &HoloMaterial{
		Material: scene.NewStandardMaterial("holo", metalness, roughness),
	}
	hm.Material.EnvMap = envMap
	hm.Material.OnBeforeCompile = func(sh *scene.Shader) error {
		u, err := PatchHolographic(sh)
		if err != nil {
			return err
		}
		hm.Uniforms = u
		return nil
	}
	return hm
}

// Ready reports whether the patched uniforms exist.
func (hm *HoloMaterial) Ready() bool {
	return hm != nil && hm.Uniforms != nil
}
