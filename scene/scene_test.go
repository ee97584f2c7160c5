package scene

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"holo-viewer/core"
)

// approxVec compares component-wise with an absolute tolerance.
func approxVec(got, want []float32, eps float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > eps {
			return false
		}
	}
	return true
}

func TestMeshCenter(t *testing.T) {
	m := CreateMeshFromData("m", []core.Vertex{
		{Position: mgl32.Vec3{1, 2, 3}},
		{Position: mgl32.Vec3{3, 6, 5}},
	}, nil)

	offset := m.Center()
	if !offset.ApproxEqual(mgl32.Vec3{-2, -4, -4}) {
		t.Errorf("expected offset (-2,-4,-4), got %v", offset)
	}
	box := m.BoundingBox()
	if !box.Center().ApproxEqual(mgl32.Vec3{}) {
		t.Errorf("expected centred box, got %v", box)
	}
	if !box.Size().ApproxEqual(mgl32.Vec3{2, 4, 2}) {
		t.Errorf("size changed: %v", box.Size())
	}
}

func TestMeshCenterEmpty(t *testing.T) {
	m := CreateMeshFromData("empty", nil, nil)
	if off := m.Center(); off != (mgl32.Vec3{}) {
		t.Errorf("expected zero offset, got %v", off)
	}
}

func TestCreateCube(t *testing.T) {
	c := CreateCube(2)
	if len(c.Vertices) != 24 || len(c.Indices) != 36 {
		t.Fatalf("expected 24/36, got %d/%d", len(c.Vertices), len(c.Indices))
	}
	box := c.BoundingBox()
	if !box.Min.ApproxEqual(mgl32.Vec3{-1, -1, -1}) || !box.Max.ApproxEqual(mgl32.Vec3{1, 1, 1}) {
		t.Errorf("unexpected bounds %v", box)
	}
}

func TestCameraAspect(t *testing.T) {
	c := NewCamera(70, 1, 0.001, 1000)
	c.SetAspect(800, 600)
	if c.Aspect != 800.0/600.0 {
		t.Errorf("expected %v, got %v", 800.0/600.0, c.Aspect)
	}
	c.SetAspect(400, 0)
	if c.Aspect != 800.0/600.0 {
		t.Errorf("zero height must be ignored, got %v", c.Aspect)
	}
}

func TestCameraMatrices(t *testing.T) {
	c := NewCamera(70, 1, 0.1, 100)
	c.SetPosition(mgl32.Vec3{0, 0, 5})
	c.LookAt(mgl32.Vec3{})

	p := c.GetViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !p.ApproxEqualThreshold(mgl32.Vec4{0, 0, -5, 1}, 1e-5) {
		t.Errorf("origin in view space: %v", p)
	}
	clip := c.GetViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if clip.X() != 0 || clip.Y() != 0 {
		t.Errorf("origin should project to centre, got %v", clip)
	}
}

func TestOrbitControlsFromCamera(t *testing.T) {
	cam := NewCamera(70, 1, 0.001, 1000)
	cam.SetPosition(mgl32.Vec3{1, 1, 1})
	oc := NewOrbitControls(cam)

	want := float32(math.Sqrt(3))
	if math.Abs(float64(oc.Distance-want)) > 1e-5 {
		t.Errorf("distance: expected %v, got %v", want, oc.Distance)
	}
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, 1e-5) {
		t.Errorf("camera moved on construction: %v", cam.Position)
	}
}

func TestOrbitControlsDrag(t *testing.T) {
	cam := NewCamera(70, 1, 0.001, 1000)
	cam.SetPosition(mgl32.Vec3{0, 0, 2})
	oc := NewOrbitControls(cam)
	oc.SetViewHeight(100)

	oc.PointerDown(0, 0)
	oc.PointerMove(-25, 0) // quarter turn
	oc.PointerUp()

	if !approxVec(cam.Position[:], []float32{2, 0, 0}, 1e-4) {
		t.Errorf("expected (2,0,0), got %v", cam.Position)
	}
	if oc.Dragging() {
		t.Error("drag should have ended")
	}

	oc.PointerMove(50, 50)
	if !approxVec(cam.Position[:], []float32{2, 0, 0}, 1e-4) {
		t.Error("moves without a drag must be ignored")
	}
}

func TestOrbitControlsDollyClamp(t *testing.T) {
	cam := NewCamera(70, 1, 0.001, 1000)
	cam.SetPosition(mgl32.Vec3{0, 0, 1})
	oc := NewOrbitControls(cam)
	oc.MinDistance = 0.5

	for i := 0; i < 100; i++ {
		oc.Scroll(1)
	}
	if oc.Distance != 0.5 {
		t.Errorf("expected clamp at 0.5, got %v", oc.Distance)
	}

	oc.Enabled = false
	oc.Scroll(-10)
	if oc.Distance != 0.5 {
		t.Error("disabled controls must ignore scroll")
	}
}

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	parent.SetUniformScale(0.1)
	child.SetPosition(mgl32.Vec3{10, 0, 0})

	p := child.GetWorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !approxVec(p[:], []float32{1, 0, 0, 1}, 1e-5) {
		t.Errorf("expected (1,0,0), got %v", p)
	}

	parent.SetRotationY(math.Pi)
	if parent.RotationY() != math.Pi {
		t.Errorf("RotationY = %v", parent.RotationY())
	}
	p = child.GetWorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !approxVec(p[:], []float32{-1, 0, 0, 1}, 1e-5) {
		t.Errorf("rotation not propagated: %v", p)
	}
	if parent.FirstChild() != child || child.FirstChild() != nil {
		t.Error("FirstChild mismatch")
	}
}

func TestApproxVecNearZero(t *testing.T) {
	if !approxVec([]float32{2, 0, -8.742278e-08}, []float32{2, 0, 0}, 1e-4) {
		t.Error("Expected rounding noise around zero to compare equal")
	}
	if approxVec([]float32{2, 0, 0.01}, []float32{2, 0, 0}, 1e-4) {
		t.Error("Expected a real offset to compare unequal")
	}
}

func TestQuatToEulerXYZ(t *testing.T) {
	for _, e := range []mgl32.Vec3{{0, 0, 0}, {0.3, -0.2, 0.1}, {0, 1.2, 0}, {-1, 0.5, 2}} {
		tr := core.NewTransform()
		tr.Rotation = e
		q := mgl32.Mat4ToQuat(tr.GetMatrix())

		got := QuatToEulerXYZ(q)
		if !got.ApproxEqualThreshold(e, 1e-4) {
			t.Errorf("round trip %v -> %v", e, got)
		}
	}
}

func triangleDoc(meshes int, primsPerMesh int) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	var roots []int
	for m := 0; m < meshes; m++ {
		mesh := &gltf.Mesh{Name: "body"}
		for p := 0; p < primsPerMesh; p++ {
			mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
				Indices:    gltf.Index(idx),
				Attributes: map[string]int{gltf.POSITION: pos},
			})
		}
		doc.Meshes = append(doc.Meshes, mesh)
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "n" + string(rune('a'+m)), Mesh: gltf.Index(m)})
		roots = append(roots, m)
	}
	doc.Scenes[0].Nodes = roots
	return doc
}

func TestGLTFLoadDocument(t *testing.T) {
	var l GLTFLoader
	res, err := l.LoadDocument(triangleDoc(2, 1))
	if err != nil {
		t.Fatal(err)
	}
	root := res.Scene()
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(root.Children))
	}
	first := root.FirstChild()
	if first.Name != "na" || first.Mesh == nil {
		t.Fatalf("unexpected first child %q", first.Name)
	}
	if len(first.Mesh.Vertices) != 3 || len(first.Mesh.Indices) != 3 {
		t.Errorf("unexpected geometry %d/%d", len(first.Mesh.Vertices), len(first.Mesh.Indices))
	}
}

func TestGLTFMultiPrimitive(t *testing.T) {
	var l GLTFLoader
	res, err := l.LoadDocument(triangleDoc(1, 3))
	if err != nil {
		t.Fatal(err)
	}
	n := res.Roots[0]
	if n.Mesh != nil || len(n.Children) != 3 {
		t.Errorf("expected 3 primitive children, got mesh=%v children=%d", n.Mesh != nil, len(n.Children))
	}
	if len(n.Meshes()) != 3 {
		t.Errorf("Meshes() = %d", len(n.Meshes()))
	}
}

type stubDecoder struct{ calls int }

func (d *stubDecoder) DecodePrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Mesh, error) {
	d.calls++
	return CreateCube(1), nil
}

func TestGLTFCompressedGeometry(t *testing.T) {
	doc := triangleDoc(1, 1)
	doc.Meshes[0].Primitives[0].Extensions = map[string]any{DracoExtension: map[string]any{}}

	l := GLTFLoader{DecoderPath: "https://example.com/draco/"}
	_, err := l.LoadDocument(doc)
	if !errors.Is(err, ErrCompressedGeometry) {
		t.Fatalf("expected ErrCompressedGeometry, got %v", err)
	}
	if !strings.Contains(err.Error(), "https://example.com/draco/") {
		t.Errorf("error should name the decoder path: %v", err)
	}

	dec := &stubDecoder{}
	l.Decoder = dec
	res, err := l.LoadDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.calls != 1 || len(res.Roots[0].Mesh.Vertices) != 24 {
		t.Errorf("decoder not used: calls=%d", dec.calls)
	}
}

func TestGLTFEmpty(t *testing.T) {
	var l GLTFLoader
	doc := gltf.NewDocument()
	if _, err := l.LoadDocument(doc); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("expected ErrNoGeometry, got %v", err)
	}
}

func TestGetVisibleNodes(t *testing.T) {
	s := NewScene()
	a := NewNode("a")
	a.Mesh = CreateCube(1)
	b := NewNode("b")
	b.Mesh = CreateCube(1)
	b.Visible = false
	hidden := NewNode("under-b")
	hidden.Mesh = CreateCube(1)
	b.AddChild(hidden)
	s.AddNode(a)
	s.AddNode(b)

	got := s.GetVisibleNodes()
	if len(got) != 1 || got[0] != a {
		t.Errorf("expected only a, got %d nodes", len(got))
	}
}
