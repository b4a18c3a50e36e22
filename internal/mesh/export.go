package mesh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF writes every mesh as a named node of a single glTF scene.
// A ".glb" extension selects the binary container. glTF is +Y up, so heights
// are written as f(x, z, t) and every triangle is wound counter-clockwise as
// seen from above.
func ExportGLTF(path string, meshes map[string]*Mesh) error {
	doc := gltf.NewDocument()

	names := make([]string, 0, len(meshes))
	for name := range meshes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := meshes[name]
		if m == nil || len(m.Vertices) == 0 {
			continue
		}

		positions := make([][3]float32, len(m.Vertices))
		colors := make([][4]uint8, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = [3]float32{v.Position[0], -v.Position[1], v.Position[2]}
			colors[i] = [4]uint8{
				unorm8(v.Color[0]), unorm8(v.Color[1]), unorm8(v.Color[2]), unorm8(v.Color[3]),
			}
		}

		primitive := &gltf.Primitive{
			Indices: gltf.Index(modeler.WriteIndices(doc, windUp(positions, m.Indices))),
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION: modeler.WritePosition(doc, positions),
				gltf.COLOR_0:  modeler.WriteColor(doc, colors),
			},
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       name,
			Primitives: []*gltf.Primitive{primitive},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: name,
			Mesh: gltf.Index(len(doc.Meshes) - 1),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// windUp returns a copy of a triangle list in which every triangle's front
// face points to +Y. Orientation is taken from the XZ footprint, which is
// never degenerate for a height field, so steep slopes cannot flip it.
func windUp(positions [][3]float32, indices []uint32) []uint32 {
	out := make([]uint32, len(indices))
	copy(out, indices)
	for i := 0; i+2 < len(out); i += 3 {
		a, b, c := positions[out[i]], positions[out[i+1]], positions[out[i+2]]
		// Y component of (b-a) x (c-a).
		ny := (b[2]-a[2])*(c[0]-a[0]) - (b[0]-a[0])*(c[2]-a[2])
		if ny < 0 {
			out[i+1], out[i+2] = out[i+2], out[i+1]
		}
	}
	return out
}

func unorm8(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}
