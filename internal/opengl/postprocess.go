package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"holo-viewer/internal/logging"
	"holo-viewer/postfx"
	"holo-viewer/scene"
)

// bloomMips is the number of blur levels in the bloom chain.
const bloomMips = 5

var (
	// bloomKernels is the Gaussian radius for each mip.
	bloomKernels = [bloomMips]int32{3, 5, 7, 9, 11}
	// bloomFactors weights each mip before Radius is applied.
	bloomFactors = [bloomMips]float32{1.0, 0.8, 0.6, 0.4, 0.2}
)

// BloomFactor blends a mip weight towards its mirror as radius grows.
func BloomFactor(factor, radius float32) float32 {
	mirror := 1.2 - factor
	return factor + (mirror-factor)*radius
}

// ── Shaders ───────────────────────────────────────────────────────────────────

// highPassFragSrc keeps pixels whose luminance exceeds the threshold, with
// a short smooth edge.
const highPassFragSrc = `in  vec2 vUv;
out vec4 outColor;

uniform sampler2D tDiffuse;
uniform float     threshold;

void main() {
    vec4  texel = texture(tDiffuse, vUv);
    float luma  = dot(texel.rgb, vec3(0.299, 0.587, 0.114));
    float alpha = smoothstep(threshold, threshold + 0.01, luma);
    outColor = mix(vec4(0.0), texel, alpha);
}
`

// blurFragSrc is a single-axis Gaussian with sigma equal to the radius.
const blurFragSrc = `in  vec2 vUv;
out vec4 outColor;

uniform sampler2D colorTexture;
uniform vec2      texelDir;
uniform int       kernelRadius;

float gaussianPdf(const in float x, const in float sigma) {
    return 0.39894 * exp(-0.5 * x * x / (sigma * sigma)) / sigma;
}

void main() {
    float sigma  = float(kernelRadius);
    float wsum   = gaussianPdf(0.0, sigma);
    vec3  result = texture(colorTexture, vUv).rgb * wsum;
    for (int i = 1; i < kernelRadius; i++) {
        float x = float(i);
        float w = gaussianPdf(x, sigma);
        vec2  offset = texelDir * x;
        result += texture(colorTexture, vUv + offset).rgb * w;
        result += texture(colorTexture, vUv - offset).rgb * w;
        wsum += 2.0 * w;
    }
    outColor = vec4(result / wsum, 1.0);
}
`

// bloomCompositeFragSrc adds the weighted blur mips to the scene colour.
const bloomCompositeFragSrc = `in  vec2 vUv;
out vec4 outColor;

uniform sampler2D tDiffuse;
uniform sampler2D blurTexture1;
uniform sampler2D blurTexture2;
uniform sampler2D blurTexture3;
uniform sampler2D blurTexture4;
uniform sampler2D blurTexture5;
uniform float     bloomStrength;
uniform float     bloomFactors[5];

void main() {
    vec3 bloom = bloomFactors[0] * texture(blurTexture1, vUv).rgb
               + bloomFactors[1] * texture(blurTexture2, vUv).rgb
               + bloomFactors[2] * texture(blurTexture3, vUv).rgb
               + bloomFactors[3] * texture(blurTexture4, vUv).rgb
               + bloomFactors[4] * texture(blurTexture5, vUv).rgb;
    vec4 base = texture(tDiffuse, vUv);
    outColor = vec4(base.rgb + bloomStrength * bloom, base.a);
}
`

// outputFragSrc applies exposure, ACES filmic tone mapping and the sRGB
// transfer when writing to the screen.
const outputFragSrc = `in  vec2 vUv;
out vec4 outColor;

uniform sampler2D tDiffuse;
uniform float     exposure;

vec3 RRTAndODTFit(vec3 v) {
    vec3 a = v * (v + 0.0245786) - 0.000090537;
    vec3 b = v * (0.983729 * v + 0.4329510) + 0.238081;
    return a / b;
}

vec3 ACESFilmicToneMapping(vec3 color) {
    const mat3 inputMat = mat3(
        vec3(0.59719, 0.07600, 0.02840),
        vec3(0.35458, 0.90834, 0.13383),
        vec3(0.04823, 0.01566, 0.83777)
    );
    const mat3 outputMat = mat3(
        vec3( 1.60475, -0.10208, -0.00327),
        vec3(-0.53108,  1.10813, -0.07276),
        vec3(-0.07367, -0.00605,  1.07602)
    );
    color *= exposure / 0.6;
    color = inputMat * color;
    color = RRTAndODTFit(color);
    color = outputMat * color;
    return clamp(color, 0.0, 1.0);
}

vec3 linearToSRGB(vec3 c) {
    return mix(pow(c, vec3(0.41666)) * 1.055 - vec3(0.055), c * 12.92, vec3(lessThanEqual(c, vec3(0.0031308))));
}

void main() {
    vec4 texel = texture(tDiffuse, vUv);
    outColor = vec4(linearToSRGB(ACESFilmicToneMapping(texel.rgb)), 1.0);
}
`

// ── PostProcessor ─────────────────────────────────────────────────────────────

// shaderProgram is a compiled ShaderPass.
type shaderProgram struct {
	prog     uint32
	source   string
	err      error
	diffLoc  int32
	uniforms map[string]int32
}

type bloomMip struct {
	horizontal *renderTarget
	vertical   *renderTarget
}

// PostProcessor implements postfx.Backend with two HDR ping-pong targets.
// The renderer draws the scene into them and Present writes the read
// target to the default framebuffer.
type PostProcessor struct {
	renderer *Renderer

	targets [2]*renderTarget
	read    int
	width   int
	height  int

	quadVAO uint32

	highPassProg  uint32
	highThreshLoc int32
	highPass      *renderTarget

	blurProg      uint32
	blurDirLoc    int32
	blurRadiusLoc int32
	mips          [bloomMips]bloomMip

	compositeProg   uint32
	compStrengthLoc int32
	compFactorsLoc  int32

	outputProg  uint32
	exposureLoc int32

	shaders map[*postfx.ShaderPass]*shaderProgram
}

// NewPostProcessor compiles the built-in programs. Targets are allocated on
// the first SetSize.
func NewPostProcessor(r *Renderer) (*PostProcessor, error) {
	pp := &PostProcessor{
		renderer: r,
		shaders:  make(map[*postfx.ShaderPass]*shaderProgram),
	}

	var err error
	if pp.highPassProg, err = newFullscreenProgram(highPassFragSrc); err != nil {
		return nil, fmt.Errorf("bloom high-pass shader: %w", err)
	}
	pp.highThreshLoc = uniformLoc(pp.highPassProg, "threshold")
	gl.UseProgram(pp.highPassProg)
	gl.Uniform1i(uniformLoc(pp.highPassProg, "tDiffuse"), 0)

	if pp.blurProg, err = newFullscreenProgram(blurFragSrc); err != nil {
		pp.Destroy()
		return nil, fmt.Errorf("bloom blur shader: %w", err)
	}
	pp.blurDirLoc = uniformLoc(pp.blurProg, "texelDir")
	pp.blurRadiusLoc = uniformLoc(pp.blurProg, "kernelRadius")
	gl.UseProgram(pp.blurProg)
	gl.Uniform1i(uniformLoc(pp.blurProg, "colorTexture"), 0)

	if pp.compositeProg, err = newFullscreenProgram(bloomCompositeFragSrc); err != nil {
		pp.Destroy()
		return nil, fmt.Errorf("bloom composite shader: %w", err)
	}
	pp.compStrengthLoc = uniformLoc(pp.compositeProg, "bloomStrength")
	pp.compFactorsLoc = uniformLoc(pp.compositeProg, "bloomFactors")
	gl.UseProgram(pp.compositeProg)
	gl.Uniform1i(uniformLoc(pp.compositeProg, "tDiffuse"), 0)
	for i := 0; i < bloomMips; i++ {
		gl.Uniform1i(uniformLoc(pp.compositeProg, fmt.Sprintf("blurTexture%d", i+1)), int32(i+1))
	}

	if pp.outputProg, err = newFullscreenProgram(outputFragSrc); err != nil {
		pp.Destroy()
		return nil, fmt.Errorf("output shader: %w", err)
	}
	pp.exposureLoc = uniformLoc(pp.outputProg, "exposure")
	gl.UseProgram(pp.outputProg)
	gl.Uniform1i(uniformLoc(pp.outputProg, "tDiffuse"), 0)

	gl.GenVertexArrays(1, &pp.quadVAO)
	return pp, nil
}

// ── Targets ───────────────────────────────────────────────────────────────────

// SetSize recreates every target at the given pixel size.
func (pp *PostProcessor) SetSize(width, height int) {
	if width == pp.width && height == pp.height && pp.targets[0] != nil {
		return
	}
	pp.freeTargets()
	pp.width, pp.height = width, height

	var err error
	for i := range pp.targets {
		if pp.targets[i], err = newRenderTarget(width, height, true); err != nil {
			logging.Logger().Error("post-process target", "err", err)
		}
	}

	w, h := max(width/2, 1), max(height/2, 1)
	if pp.highPass, err = newRenderTarget(w, h, false); err != nil {
		logging.Logger().Error("bloom high-pass target", "err", err)
	}
	for i := range pp.mips {
		m := &pp.mips[i]
		if m.horizontal, err = newRenderTarget(w, h, false); err != nil {
			logging.Logger().Error("bloom mip target", "mip", i, "err", err)
		}
		if m.vertical, err = newRenderTarget(w, h, false); err != nil {
			logging.Logger().Error("bloom mip target", "mip", i, "err", err)
		}
		w, h = max(w/2, 1), max(h/2, 1)
	}
	pp.read = 0
}

func (pp *PostProcessor) freeTargets() {
	for i := range pp.targets {
		pp.targets[i].destroy()
		pp.targets[i] = nil
	}
	pp.highPass.destroy()
	pp.highPass = nil
	for i := range pp.mips {
		pp.mips[i].horizontal.destroy()
		pp.mips[i].vertical.destroy()
		pp.mips[i] = bloomMip{}
	}
}

func (pp *PostProcessor) readTarget() *renderTarget  { return pp.targets[pp.read] }
func (pp *PostProcessor) writeTarget() *renderTarget { return pp.targets[1-pp.read] }

func (pp *PostProcessor) ready() error {
	if pp.targets[0] == nil || pp.targets[1] == nil {
		return fmt.Errorf("post-process targets not allocated")
	}
	return nil
}

// Swap exchanges the read and write targets.
func (pp *PostProcessor) Swap() {
	pp.read = 1 - pp.read
}

// ── Passes ────────────────────────────────────────────────────────────────────

// RenderScene draws s into the write target.
func (pp *PostProcessor) RenderScene(s *scene.Scene, cam *scene.Camera) error {
	if err := pp.ready(); err != nil {
		return err
	}
	pp.writeTarget().bind()
	pp.renderer.DrawScene(s, cam)
	return nil
}

// Bloom runs high-pass, mip blur and composite, writing read + bloom into
// the write target.
func (pp *PostProcessor) Bloom(p *postfx.BloomPass) error {
	if err := pp.ready(); err != nil {
		return err
	}
	if pp.highPass == nil {
		return fmt.Errorf("bloom targets not allocated")
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(pp.quadVAO)
	gl.ActiveTexture(gl.TEXTURE0)

	// ── Step 1: high-pass ─────────────────────────────────────────────────
	pp.highPass.bind()
	gl.UseProgram(pp.highPassProg)
	gl.Uniform1f(pp.highThreshLoc, p.Threshold)
	gl.BindTexture(gl.TEXTURE_2D, pp.readTarget().ColorTex)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	// ── Step 2: separable blur down the mip chain ─────────────────────────
	gl.UseProgram(pp.blurProg)
	src := pp.highPass.ColorTex
	for i := range pp.mips {
		m := pp.mips[i]
		if m.horizontal == nil || m.vertical == nil {
			return fmt.Errorf("bloom mip %d not allocated", i)
		}
		gl.Uniform1i(pp.blurRadiusLoc, bloomKernels[i])

		m.horizontal.bind()
		gl.Uniform2f(pp.blurDirLoc, 1/float32(m.horizontal.Width), 0)
		gl.BindTexture(gl.TEXTURE_2D, src)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)

		m.vertical.bind()
		gl.Uniform2f(pp.blurDirLoc, 0, 1/float32(m.vertical.Height))
		gl.BindTexture(gl.TEXTURE_2D, m.horizontal.ColorTex)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)

		src = m.vertical.ColorTex
	}

	// ── Step 3: composite ─────────────────────────────────────────────────
	var factors [bloomMips]float32
	for i, f := range bloomFactors {
		factors[i] = BloomFactor(f, p.Radius)
	}
	pp.writeTarget().bind()
	gl.UseProgram(pp.compositeProg)
	gl.Uniform1f(pp.compStrengthLoc, p.Strength)
	gl.Uniform1fv(pp.compFactorsLoc, bloomMips, &factors[0])
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, pp.readTarget().ColorTex)
	for i := range pp.mips {
		gl.ActiveTexture(gl.TEXTURE1 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, pp.mips[i].vertical.ColorTex)
	}
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
	return nil
}

// Shader runs a ShaderPass over the read target into the write target.
func (pp *PostProcessor) Shader(p *postfx.ShaderPass) error {
	if err := pp.ready(); err != nil {
		return err
	}
	sp := pp.shaderProgram(p)
	if sp.err != nil {
		return sp.err
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(pp.quadVAO)
	pp.writeTarget().bind()
	gl.UseProgram(sp.prog)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, pp.readTarget().ColorTex)
	gl.Uniform1i(sp.diffLoc, 0)
	for name, loc := range sp.uniforms {
		if u := p.Uniform(name); u != nil {
			gl.Uniform1f(loc, u.Value)
		}
	}
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
	return nil
}

// shaderProgram returns the cached program for p, rebuilding it when the
// source changed.
func (pp *PostProcessor) shaderProgram(p *postfx.ShaderPass) *shaderProgram {
	if sp, ok := pp.shaders[p]; ok && sp.source == p.FragmentSource {
		return sp
	} else if ok && sp.prog != 0 {
		gl.DeleteProgram(sp.prog)
	}

	sp := &shaderProgram{source: p.FragmentSource}
	prog, err := newFullscreenProgram(p.FragmentSource)
	if err != nil {
		sp.err = fmt.Errorf("shader pass %q: %w", p.Name, err)
		logging.Logger().Error("shader pass failed", "pass", p.Name, "err", err)
	} else {
		sp.prog = prog
		sp.diffLoc = uniformLoc(prog, "tDiffuse")
		sp.uniforms = make(map[string]int32, len(p.Uniforms))
		for _, name := range p.UniformNames() {
			sp.uniforms[name] = uniformLoc(prog, name)
		}
	}
	pp.shaders[p] = sp
	return sp
}

// Present tone-maps the read target onto the default framebuffer.
func (pp *PostProcessor) Present() error {
	if err := pp.ready(); err != nil {
		return err
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(pp.width), int32(pp.height))
	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(pp.quadVAO)
	gl.UseProgram(pp.outputProg)
	gl.Uniform1f(pp.exposureLoc, pp.renderer.Exposure())
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, pp.readTarget().ColorTex)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
	return nil
}

// Destroy frees all GPU resources owned by this object.
func (pp *PostProcessor) Destroy() {
	pp.freeTargets()
	for _, prog := range []*uint32{&pp.highPassProg, &pp.blurProg, &pp.compositeProg, &pp.outputProg} {
		if *prog != 0 {
			gl.DeleteProgram(*prog)
			*prog = 0
		}
	}
	for p, sp := range pp.shaders {
		if sp.prog != 0 {
			gl.DeleteProgram(sp.prog)
		}
		delete(pp.shaders, p)
	}
	if pp.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &pp.quadVAO)
		pp.quadVAO = 0
	}
}
