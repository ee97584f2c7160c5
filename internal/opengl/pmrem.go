package opengl

import (
	"fmt"
	"math/bits"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"holo-viewer/internal/logging"
	"holo-viewer/scene"
)

// prefilterFragSrc convolves an equirectangular map with the GGX lobe for
// one roughness, using importance sampling with N = V = R.
const prefilterFragSrc = `#include <common>
#include <envmap_common_pars_fragment>

in  vec2 vUv;
out vec4 outColor;

uniform float roughness;
uniform float sourceTexels;
uniform int   sampleCount;

vec3 uvToDir(const in vec2 uv) {
    float phi   = (uv.x - 0.5) * 2.0 * PI;
    float theta = (0.5 - uv.y) * PI;
    return vec3(cos(theta) * cos(phi), sin(theta), cos(theta) * sin(phi));
}

float radicalInverse(uint b) {
    b = (b << 16u) | (b >> 16u);
    b = ((b & 0x55555555u) << 1u) | ((b & 0xAAAAAAAAu) >> 1u);
    b = ((b & 0x33333333u) << 2u) | ((b & 0xCCCCCCCCu) >> 2u);
    b = ((b & 0x0F0F0F0Fu) << 4u) | ((b & 0xF0F0F0F0u) >> 4u);
    b = ((b & 0x00FF00FFu) << 8u) | ((b & 0xFF00FF00u) >> 8u);
    return float(b) * 2.3283064365386963e-10;
}

vec3 importanceSampleGGX(const in vec2 xi, const in vec3 n, const in float r) {
    float a = r * r;
    float phi = 2.0 * PI * xi.x;
    float cosTheta = sqrt((1.0 - xi.y) / (1.0 + (a * a - 1.0) * xi.y));
    float sinTheta = sqrt(1.0 - cosTheta * cosTheta);
    vec3 h = vec3(cos(phi) * sinTheta, sin(phi) * sinTheta, cosTheta);

    vec3 up = abs(n.z) < 0.999 ? vec3(0.0, 0.0, 1.0) : vec3(1.0, 0.0, 0.0);
    vec3 tangent = normalize(cross(up, n));
    vec3 bitangent = cross(n, tangent);
    return normalize(tangent * h.x + bitangent * h.y + n * h.z);
}

float distributionGGX(const in float dotNH, const in float r) {
    float a2 = r * r * r * r;
    float d = dotNH * dotNH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

void main() {
    vec3 n = uvToDir(vUv);
    if (roughness <= 0.0) {
        outColor = vec4(textureLod(envMap, equirectUv(n), 0.0).rgb, 1.0);
        return;
    }

    float saTexel = 4.0 * PI / sourceTexels;
    vec3  sum = vec3(0.0);
    float weight = 0.0;
    uint  count = uint(sampleCount);
    for (uint i = 0u; i < count; i++) {
        vec2 xi = vec2(float(i) / float(count), radicalInverse(i));
        vec3 h = importanceSampleGGX(xi, n, roughness);
        vec3 l = normalize(2.0 * dot(n, h) * h - n);
        float dotNL = dot(n, l);
        if (dotNL > 0.0) {
            float dotNH = max(dot(n, h), 0.0);
            float pdf = distributionGGX(dotNH, roughness) * 0.25 + 0.0001;
            float saSample = 1.0 / (float(count) * pdf + 0.0001);
            float lod = 0.5 * log2(saSample / saTexel);
            sum += textureLod(envMap, equirectUv(l), max(lod, 0.0)).rgb * dotNL;
            weight += dotNL;
        }
    }
    outColor = vec4(sum / max(weight, 0.0001), 1.0);
}
`

// DefaultPrefilterLevels is the number of roughness levels produced.
const DefaultPrefilterLevels = 6

// PMREMGenerator bakes equirectangular environment maps into prefiltered
// roughness mip chains. Mip level n holds roughness n/(levels-1).
type PMREMGenerator struct {
	// MaxWidth caps the width of mip level 0.
	MaxWidth int
	// Levels is the requested number of roughness levels.
	Levels  int
	Samples int

	prog       uint32
	roughLoc   int32
	texelsLoc  int32
	samplesLoc int32
	fbo        uint32
	vao        uint32
}

func NewPMREMGenerator() (*PMREMGenerator, error) {
	prog, err := newFullscreenProgram(prefilterFragSrc)
	if err != nil {
		return nil, fmt.Errorf("prefilter shader: %w", err)
	}
	g := &PMREMGenerator{
		MaxWidth:   1024,
		Levels:     DefaultPrefilterLevels,
		Samples:    128,
		prog:       prog,
		roughLoc:   uniformLoc(prog, "roughness"),
		texelsLoc:  uniformLoc(prog, "sourceTexels"),
		samplesLoc: uniformLoc(prog, "sampleCount"),
	}
	gl.UseProgram(prog)
	gl.Uniform1i(uniformLoc(prog, "envMap"), 0)

	gl.GenFramebuffers(1, &g.fbo)
	gl.GenVertexArrays(1, &g.vao)
	return g, nil
}

// PrefilterLevels returns how many levels fit a level-0 height.
func PrefilterLevels(height, want int) int {
	if height < 1 {
		return 1
	}
	fit := bits.Len(uint(height))
	return max(min(want, fit), 1)
}

// FromEquirectangular uploads tex, renders the prefiltered chain and frees
// the uploaded source. The returned texture lives on the GPU only.
func (g *PMREMGenerator) FromEquirectangular(tex *scene.Texture) (*scene.Texture, error) {
	if g.prog == 0 {
		return nil, fmt.Errorf("prefilter: generator disposed")
	}
	if tex.GLID == 0 {
		if err := UploadTexture(tex); err != nil {
			return nil, fmt.Errorf("prefilter: %w", err)
		}
		defer DeleteTexture(tex)
	}

	width := min(tex.Width, g.MaxWidth)
	height := max(width/2, 1)
	levels := PrefilterLevels(height, g.Levels)

	var out uint32
	gl.GenTextures(1, &out)
	gl.BindTexture(gl.TEXTURE_2D, out)
	for lvl := 0; lvl < levels; lvl++ {
		gl.TexImage2D(gl.TEXTURE_2D, int32(lvl), gl.RGBA16F,
			int32(max(width>>lvl, 1)), int32(max(height>>lvl, 1)), 0, gl.RGBA, gl.HALF_FLOAT, nil)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(levels-1))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.Disable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.fbo)
	gl.BindVertexArray(g.vao)
	gl.UseProgram(g.prog)
	gl.Uniform1f(g.texelsLoc, float32(tex.Width*tex.Height))
	gl.Uniform1i(g.samplesLoc, int32(g.Samples))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)

	for lvl := 0; lvl < levels; lvl++ {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, out, int32(lvl))
		if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			gl.DeleteTextures(1, &out)
			gl.Enable(gl.DEPTH_TEST)
			return nil, fmt.Errorf("prefilter level %d: framebuffer incomplete (0x%X)", lvl, s)
		}
		gl.Viewport(0, 0, int32(max(width>>lvl, 1)), int32(max(height>>lvl, 1)))
		rough := float32(0)
		if levels > 1 {
			rough = float32(lvl) / float32(levels-1)
		}
		gl.Uniform1f(g.roughLoc, rough)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
	}

	gl.BindVertexArray(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Enable(gl.DEPTH_TEST)

	logging.Logger().Debug("environment prefiltered", "name", tex.Name, "width", width, "height", height, "levels", levels)
	return &scene.Texture{
		Name:      tex.Name + "#pmrem",
		Width:     width,
		Height:    height,
		Mapping:   scene.PrefilteredReflectionMapping,
		MipLevels: levels,
		GLID:      out,
	}, nil
}

// Dispose frees the prefilter program and scratch objects. Textures already
// produced stay valid.
func (g *PMREMGenerator) Dispose() {
	if g.prog != 0 {
		gl.DeleteProgram(g.prog)
		g.prog = 0
	}
	if g.fbo != 0 {
		gl.DeleteFramebuffers(1, &g.fbo)
		g.fbo = 0
	}
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
		g.vao = 0
	}
}
