package scene

import (
	"holo-viewer/core"
)

// Scene is the root of a node graph plus the clear colour behind it.
// A transparent Background leaves the surface clear colour in effect.
type Scene struct {
	Root       *Node
	Background core.Color
}

func NewScene() *Scene {
	return &Scene{
		Root: NewNode("Root"),
	}
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

// GetVisibleNodes returns all nodes with meshes that are visible
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node

	var walk func(*Node)
	walk = func(node *Node) {
		if !node.Visible {
			return
		}
		if node.Mesh != nil {
			visible = append(visible, node)
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(s.Root)

	return visible
}
