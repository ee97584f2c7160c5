package sketch

import "errors"

var (
	// ErrAssetLoad wraps texture and model failures. The loop keeps
	// rendering whatever is already in the scene.
	ErrAssetLoad = errors.New("asset load failed")
	// ErrShaderCompile means the reflection patch could not be applied or
	// the patched program did not build.
	ErrShaderCompile = errors.New("shader compile failed")
	// ErrSurfaceInit means there is nothing to draw into.
	ErrSurfaceInit = errors.New("surface init failed")
)
