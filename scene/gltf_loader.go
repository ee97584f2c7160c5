package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"holo-viewer/core"
	"holo-viewer/internal/logging"
)

// DracoExtension is the glTF extension name for Draco-compressed geometry.
const DracoExtension = "KHR_draco_mesh_compression"

var (
	ErrNoGeometry         = errors.New("gltf: no geometry")
	ErrCompressedGeometry = errors.New("gltf: compressed geometry")
)

// GeometryDecoder decodes primitives stored with a compression extension.
type GeometryDecoder interface {
	DecodePrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Mesh, error)
}

// GLTFResult holds the nodes loaded from a .glb / .gltf file.
type GLTFResult struct {
	Roots []*Node // top-level nodes; add each with scene.AddNode(n)
}

// Scene wraps the roots under one group node, mirroring the file's scene.
func (r *GLTFResult) Scene() *Node {
	group := NewNode("Scene")
	for _, n := range r.Roots {
		group.AddChild(n)
	}
	return group
}

// GLTFLoader loads glTF assets. Primitives using DracoExtension are routed
// to Decoder; DecoderPath names where the decoder was configured from and
// is reported when decoding is impossible.
type GLTFLoader struct {
	DecoderPath string
	Decoder     GeometryDecoder
}

// Load opens a .glb or .gltf file and returns its scene graph.
func (l *GLTFLoader) Load(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	res, err := l.LoadDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}
	return res, nil
}

// LoadDocument converts an already parsed document.
func (l *GLTFLoader) LoadDocument(doc *gltf.Document) (*GLTFResult, error) {
	result := &GLTFResult{}

	// ── 1. Materials ─────────────────────────────────────────────────────────
	matCache := make([]*StandardMaterial, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Color = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			mat.Metalness = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		}
		matCache[i] = mat
	}

	// ── 2. Mesh primitives ────────────────────────────────────────────────────
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := l.loadPrimitive(doc, gm.Name, pi, prim)
			if errors.Is(err, ErrCompressedGeometry) {
				return nil, err
			}
			if err != nil {
				logging.Logger().Warn("gltf: skipping primitive", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	// ── 3. Nodes ──────────────────────────────────────────────────────────────
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)

		t := gn.TranslationOrDefault()
		n.SetPosition(mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])})

		sc := gn.ScaleOrDefault()
		n.SetScale(mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])})

		r := gn.RotationOrDefault() // [x, y, z, w]
		q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
		n.SetRotation(QuatToEulerXYZ(q))

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
				// no geometry
			case 1:
				n.Mesh = prims[0]
			default:
				// Multiple primitives → one child node per primitive
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx < len(nodes) && nodes[childIdx] != nil {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	// ── 4. Root nodes ─────────────────────────────────────────────────────────
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) && nodes[rootIdx] != nil {
				result.Roots = append(result.Roots, nodes[rootIdx])
			}
		}
	} else {
		// No default scene: collect all parentless nodes
		for _, n := range nodes {
			if n != nil && n.Parent == nil {
				result.Roots = append(result.Roots, n)
			}
		}
	}

	if len(result.Roots) == 0 {
		return nil, ErrNoGeometry
	}
	return result, nil
}

// loadPrimitive converts one glTF mesh primitive into a scene.Mesh.
func (l *GLTFLoader) loadPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	if _, compressed := prim.Extensions[DracoExtension]; compressed {
		if l.Decoder == nil {
			return nil, fmt.Errorf("%w: mesh %q needs a decoder (decoder path %q)",
				ErrCompressedGeometry, meshName, l.DecoderPath)
		}
		m, err := l.Decoder.DecodePrimitive(doc, prim)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompressedGeometry, err)
		}
		return m, nil
	}

	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2(uvs[i])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	return CreateMeshFromData(name, verts, indices), nil
}

// QuatToEulerXYZ converts a rotation to Euler angles applied as X, then Y,
// then Z about the rotated axes, matching Transform.GetMatrix.
func QuatToEulerXYZ(q mgl32.Quat) mgl32.Vec3 {
	m := q.Normalize().Mat4()
	m13 := m.At(0, 2)
	if m13 > 1 {
		m13 = 1
	} else if m13 < -1 {
		m13 = -1
	}
	y := float32(math.Asin(float64(m13)))
	var x, z float32
	if math.Abs(float64(m13)) < 0.9999999 {
		x = float32(math.Atan2(float64(-m.At(1, 2)), float64(m.At(2, 2))))
		z = float32(math.Atan2(float64(-m.At(0, 1)), float64(m.At(0, 0))))
	} else {
		x = float32(math.Atan2(float64(m.At(2, 1)), float64(m.At(1, 1))))
	}
	return mgl32.Vec3{x, y, z}
}
