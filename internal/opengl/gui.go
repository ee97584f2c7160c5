package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/inkyblackness/imgui-go/v4"
)

const guiVertSrc = `#version 410 core
uniform mat4 projMtx;
layout(location = 0) in vec2 position;
layout(location = 1) in vec2 uv;
layout(location = 2) in vec4 color;
out vec2 fragUV;
out vec4 fragColor;
void main() {
    fragUV      = uv;
    fragColor   = color;
    gl_Position = projMtx * vec4(position, 0.0, 1.0);
}
` + "\x00"

const guiFragSrc = `#version 410 core
uniform sampler2D tex;
in  vec2 fragUV;
in  vec4 fragColor;
out vec4 outColor;
void main() {
    outColor = vec4(fragColor.rgb, fragColor.a * texture(tex, fragUV).r);
}
` + "\x00"

// GUIRenderer draws Dear ImGui draw data onto the default framebuffer.
type GUIRenderer struct {
	prog       uint32
	texLoc     int32
	projMtxLoc int32

	vao       uint32
	vbo       uint32
	ebo       uint32
	fontTexID uint32
}

// NewGUIRenderer builds the program and uploads the font atlas of io.
func NewGUIRenderer(io imgui.IO) (*GUIRenderer, error) {
	prog, err := newProgram(guiVertSrc, guiFragSrc)
	if err != nil {
		return nil, fmt.Errorf("gui shader: %w", err)
	}
	r := &GUIRenderer{
		prog:       prog,
		texLoc:     uniformLoc(prog, "tex"),
		projMtxLoc: uniformLoc(prog, "projMtx"),
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.GenBuffers(1, &r.ebo)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)

	vertexSize, posOff, uvOff, colOff := imgui.VertexBufferLayout()
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(posOff))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(uvOff))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.UNSIGNED_BYTE, true, int32(vertexSize), gl.PtrOffset(colOff))
	gl.BindVertexArray(0)

	image := io.Fonts().TextureDataAlpha8()
	gl.GenTextures(1, &r.fontTexID)
	gl.BindTexture(gl.TEXTURE_2D, r.fontTexID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(image.Width), int32(image.Height),
		0, gl.RED, gl.UNSIGNED_BYTE, image.Pixels)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	io.Fonts().SetTextureID(imgui.TextureID(r.fontTexID))

	return r, nil
}

// Render draws data. displaySize is in window coordinates, fbSize in pixels.
func (r *GUIRenderer) Render(displaySize, fbSize [2]float32, data imgui.DrawData) {
	dw, dh := displaySize[0], displaySize[1]
	fw, fh := fbSize[0], fbSize[1]
	if dw <= 0 || dh <= 0 || fw <= 0 || fh <= 0 {
		return
	}
	data.ScaleClipRects(imgui.Vec2{X: fw / dw, Y: fh / dh})

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.SCISSOR_TEST)
	gl.Viewport(0, 0, int32(fw), int32(fh))

	proj := [4][4]float32{
		{2.0 / dw, 0.0, 0.0, 0.0},
		{0.0, 2.0 / -dh, 0.0, 0.0},
		{0.0, 0.0, -1.0, 0.0},
		{-1.0, 1.0, 0.0, 1.0},
	}
	gl.UseProgram(r.prog)
	gl.Uniform1i(r.texLoc, 0)
	gl.UniformMatrix4fv(r.projMtxLoc, 1, false, &proj[0][0])
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(r.vao)

	indexSize := imgui.IndexBufferLayout()
	drawType := uint32(gl.UNSIGNED_SHORT)
	if indexSize == 4 {
		drawType = gl.UNSIGNED_INT
	}

	for _, list := range data.CommandLists() {
		vb, vbSize := list.VertexBuffer()
		gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, vbSize, vb, gl.STREAM_DRAW)

		ib, ibSize := list.IndexBuffer()
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, ibSize, ib, gl.STREAM_DRAW)

		offset := 0
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else {
				clip := cmd.ClipRect()
				gl.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
				gl.Scissor(int32(clip.X), int32(fh)-int32(clip.W), int32(clip.Z-clip.X), int32(clip.W-clip.Y))
				gl.DrawElements(gl.TRIANGLES, int32(cmd.ElementCount()), drawType, gl.PtrOffset(offset))
			}
			offset += cmd.ElementCount() * indexSize
		}
	}

	gl.BindVertexArray(0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}

// Destroy frees the GPU objects.
func (r *GUIRenderer) Destroy() {
	if r.fontTexID != 0 {
		gl.DeleteTextures(1, &r.fontTexID)
		r.fontTexID = 0
	}
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteBuffers(1, &r.ebo)
	gl.DeleteVertexArrays(1, &r.vao)
	if r.prog != 0 {
		gl.DeleteProgram(r.prog)
		r.prog = 0
	}
}
