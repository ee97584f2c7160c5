package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"holo-viewer/core"
)

// Node represents an object in the scene graph
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

// FirstChild returns the first direct child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

func (n *Node) GetWorldMatrix() mgl32.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.GetWorldMatrix().Mul4(localMatrix)
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

// SetRotation sets Euler XYZ angles in radians.
func (n *Node) SetRotation(euler mgl32.Vec3) {
	n.Transform.Rotation = euler
	n.MarkWorldMatrixDirty()
}

// SetRotationY sets only the yaw component.
func (n *Node) SetRotationY(yaw float32) {
	n.Transform.Rotation[1] = yaw
	n.MarkWorldMatrixDirty()
}

// RotationY returns the yaw component in radians.
func (n *Node) RotationY() float32 {
	return n.Transform.Rotation.Y()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

// SetUniformScale scales all three axes by s.
func (n *Node) SetUniformScale(s float32) {
	n.SetScale(mgl32.Vec3{s, s, s})
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Meshes returns every mesh in the subtree, depth first.
func (n *Node) Meshes() []*Mesh {
	var out []*Mesh
	n.Traverse(func(c *Node) {
		if c.Mesh != nil {
			out = append(out, c.Mesh)
		}
	})
	return out
}
