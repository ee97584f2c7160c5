package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// renderTarget is an RGBA16F off-screen framebuffer with an optional
// depth attachment.
type renderTarget struct {
	FBO      uint32
	ColorTex uint32
	DepthRB  uint32
	Width    int32
	Height   int32
}

func newRenderTarget(width, height int, depth bool) (*renderTarget, error) {
	rt := &renderTarget{Width: int32(max(width, 1)), Height: int32(max(height, 1))}

	gl.GenTextures(1, &rt.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, rt.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F,
		rt.Width, rt.Height, 0, gl.RGBA, gl.HALF_FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &rt.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_2D, rt.ColorTex, 0)

	if depth {
		gl.GenRenderbuffers(1, &rt.DepthRB)
		gl.BindRenderbuffer(gl.RENDERBUFFER, rt.DepthRB)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, rt.Width, rt.Height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rt.DepthRB)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		rt.destroy()
		return nil, fmt.Errorf("framebuffer %dx%d incomplete (0x%X)", width, height, status)
	}
	return rt, nil
}

// bind makes the target current and sets the viewport to cover it.
func (rt *renderTarget) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.Viewport(0, 0, rt.Width, rt.Height)
}

func (rt *renderTarget) destroy() {
	if rt == nil {
		return
	}
	if rt.FBO != 0 {
		gl.DeleteFramebuffers(1, &rt.FBO)
		rt.FBO = 0
	}
	if rt.ColorTex != 0 {
		gl.DeleteTextures(1, &rt.ColorTex)
		rt.ColorTex = 0
	}
	if rt.DepthRB != 0 {
		gl.DeleteRenderbuffers(1, &rt.DepthRB)
		rt.DepthRB = 0
	}
}
