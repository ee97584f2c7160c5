package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"holo-viewer/core"
	"holo-viewer/internal/logging"
	"holo-viewer/internal/shaderlib"
	"holo-viewer/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// materialProgram is the linked program for one material version.
type materialProgram struct {
	prog    uint32
	version int
	err     error

	modelLoc        int32
	viewLoc         int32
	projLoc         int32
	normalMatLoc    int32
	cameraPosLoc    int32
	diffuseLoc      int32
	metalnessLoc    int32
	roughnessLoc    int32
	envMapLoc       int32
	envIntensityLoc int32
	envMaxMipLoc    int32
	hasEnvMapLoc    int32

	// Float uniforms added by the material's compile hook, by location.
	custom map[int32]*scene.Uniform
}

// Renderer is the OpenGL surface: it owns the drawing-buffer size, the
// exposure and clear colour, and draws scenes with the standard material.
type Renderer struct {
	width      int
	height     int
	pixelRatio float32
	exposure   float32
	clear      core.Color

	defaultMat *scene.StandardMaterial
	programs   map[*scene.StandardMaterial]*materialProgram
	gpuMeshes  map[*scene.Mesh]*GPUMesh
}

// ── NewRenderer ───────────────────────────────────────────────────────────────

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	logging.Logger().Info("opengl ready", "version", version,
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	return &Renderer{
		pixelRatio: 1,
		exposure:   1,
		clear:      core.ColorBlack,
		defaultMat: scene.DefaultMaterial(),
		programs:   make(map[*scene.StandardMaterial]*materialProgram),
		gpuMeshes:  make(map[*scene.Mesh]*GPUMesh),
	}, nil
}

// ── Surface state ─────────────────────────────────────────────────────────────

func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.pixelRatio = ratio
}

// SetSize sets the logical size and resizes the default viewport to the
// matching drawing-buffer size.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	w, h := r.PixelSize()
	gl.Viewport(0, 0, int32(w), int32(h))
}

// Size returns the logical size.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// PixelSize returns the drawing-buffer size in pixels.
func (r *Renderer) PixelSize() (int, int) {
	w := int(float32(r.width) * r.pixelRatio)
	h := int(float32(r.height) * r.pixelRatio)
	return max(w, 1), max(h, 1)
}

func (r *Renderer) SetExposure(e float32)      { r.exposure = e }
func (r *Renderer) Exposure() float32          { return r.exposure }
func (r *Renderer) SetClearColor(c core.Color) { r.clear = c }

// ── Programs ──────────────────────────────────────────────────────────────────

// Compile builds the programs for every material under root so the first
// frame does not stall. The first failure is returned.
func (r *Renderer) Compile(root *scene.Node, cam *scene.Camera) error {
	var firstErr error
	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		r.ensureUploaded(n.Mesh)
		mat := n.Mesh.Material
		if mat == nil {
			mat = r.defaultMat
		}
		if _, err := r.program(mat); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// program returns the cached program for mat, building it when missing or
// when the material version changed. Failures are cached too, so a broken
// material is reported once and then skipped.
func (r *Renderer) program(mat *scene.StandardMaterial) (*materialProgram, error) {
	if mp, ok := r.programs[mat]; ok {
		if mp.version == mat.Version {
			return mp, mp.err
		}
		mp.release()
	}
	mp := buildMaterialProgram(mat)
	r.programs[mat] = mp
	if mp.err != nil {
		logging.Logger().Error("material program failed", "material", mat.Name, "err", mp.err)
	}
	return mp, mp.err
}

func buildMaterialProgram(mat *scene.StandardMaterial) *materialProgram {
	mp := &materialProgram{version: mat.Version}

	sh := &scene.Shader{
		Name:           mat.Name,
		VertexSource:   shaderlib.StandardVertex(),
		FragmentSource: shaderlib.StandardFragment(),
		Uniforms:       make(map[string]*scene.Uniform),
	}
	if mat.OnBeforeCompile != nil {
		if err := mat.OnBeforeCompile(sh); err != nil {
			mp.err = fmt.Errorf("material %q: %w", mat.Name, err)
			return mp
		}
	}

	vs, err := shaderlib.Build(sh.VertexSource, nil)
	if err != nil {
		mp.err = fmt.Errorf("material %q vertex: %w", mat.Name, err)
		return mp
	}
	fs, err := shaderlib.Build(sh.FragmentSource, nil)
	if err != nil {
		mp.err = fmt.Errorf("material %q fragment: %w", mat.Name, err)
		return mp
	}
	prog, err := newProgram(vs+"\x00", fs+"\x00")
	if err != nil {
		mp.err = fmt.Errorf("material %q: %w", mat.Name, err)
		return mp
	}

	mp.prog = prog
	mp.modelLoc = uniformLoc(prog, "modelMatrix")
	mp.viewLoc = uniformLoc(prog, "viewMatrix")
	mp.projLoc = uniformLoc(prog, "projectionMatrix")
	mp.normalMatLoc = uniformLoc(prog, "normalMatrix")
	mp.cameraPosLoc = uniformLoc(prog, "cameraPosition")
	mp.diffuseLoc = uniformLoc(prog, "diffuse")
	mp.metalnessLoc = uniformLoc(prog, "metalness")
	mp.roughnessLoc = uniformLoc(prog, "roughness")
	mp.envMapLoc = uniformLoc(prog, "envMap")
	mp.envIntensityLoc = uniformLoc(prog, "envMapIntensity")
	mp.envMaxMipLoc = uniformLoc(prog, "envMapMaxMip")
	mp.hasEnvMapLoc = uniformLoc(prog, "hasEnvMap")

	mp.custom = make(map[int32]*scene.Uniform, len(sh.Uniforms))
	for name, u := range sh.Uniforms {
		if loc := uniformLoc(prog, name); loc >= 0 {
			mp.custom[loc] = u
		}
	}

	gl.UseProgram(prog)
	gl.Uniform1i(mp.envMapLoc, 0)
	return mp
}

func (mp *materialProgram) release() {
	if mp.prog != 0 {
		gl.DeleteProgram(mp.prog)
		mp.prog = 0
	}
}

// ── DrawScene ─────────────────────────────────────────────────────────────────

// DrawScene clears the bound framebuffer and draws every visible mesh.
func (r *Renderer) DrawScene(s *scene.Scene, cam *scene.Camera) {
	bg := r.clear
	if s.Background.A > 0 {
		bg = s.Background
	}
	gl.ClearColor(bg.R, bg.G, bg.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)

	view := cam.GetViewMatrix()
	proj := cam.GetProjectionMatrix()
	frustum := scene.FrustumFromMatrix(cam.GetViewProjectionMatrix())

	for _, node := range s.GetVisibleNodes() {
		world := node.GetWorldMatrix()
		if !frustum.Intersects(scene.WorldBounds(node.Mesh.BoundingBox(), world)) {
			continue
		}
		mat := node.Mesh.Material
		if mat == nil {
			mat = r.defaultMat
		}
		mp, err := r.program(mat)
		if err != nil {
			continue
		}
		r.drawMesh(node.Mesh, mat, mp, world, view, proj, cam.Position)
	}
}

func (r *Renderer) drawMesh(mesh *scene.Mesh, mat *scene.StandardMaterial, mp *materialProgram, model, view, proj mgl32.Mat4, camPos mgl32.Vec3) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}

	normalMat := model.Mat3().Inv().Transpose()

	gl.UseProgram(mp.prog)
	gl.UniformMatrix4fv(mp.modelLoc, 1, false, &model[0])
	gl.UniformMatrix4fv(mp.viewLoc, 1, false, &view[0])
	gl.UniformMatrix4fv(mp.projLoc, 1, false, &proj[0])
	gl.UniformMatrix3fv(mp.normalMatLoc, 1, false, &normalMat[0])
	gl.Uniform3f(mp.cameraPosLoc, camPos.X(), camPos.Y(), camPos.Z())

	c := mat.Color
	gl.Uniform4f(mp.diffuseLoc, c.R, c.G, c.B, c.A)
	gl.Uniform1f(mp.metalnessLoc, mat.Metalness)
	gl.Uniform1f(mp.roughnessLoc, mat.Roughness)
	gl.Uniform1f(mp.envIntensityLoc, mat.EnvMapIntensity)

	if env := mat.EnvMap; env != nil && env.GLID != 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, env.GLID)
		gl.Uniform1i(mp.hasEnvMapLoc, 1)
		gl.Uniform1f(mp.envMaxMipLoc, float32(max(env.MipLevels-1, 0)))
	} else {
		gl.Uniform1i(mp.hasEnvMapLoc, 0)
	}

	for loc, u := range mp.custom {
		gl.Uniform1f(loc, u.Value)
	}

	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
}

// ── Resource management ───────────────────────────────────────────────────────

// ReleaseMesh frees GPU buffers for the given mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		gl.DeleteVertexArrays(1, &gpu.VAO)
		gl.DeleteBuffers(1, &gpu.VBO)
		if gpu.HasIndices {
			gl.DeleteBuffers(1, &gpu.EBO)
		}
		delete(r.gpuMeshes, mesh)
		mesh.GPUData = nil
	}
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	for mat, mp := range r.programs {
		mp.release()
		delete(r.programs, mat)
	}
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}
