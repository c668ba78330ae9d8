package models

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wrenfield/isocarve/pkg/math3d"
)

// LoadOBJ loads a Wavefront .obj file into a Mesh. It supports the common
// subset every mesh exporter emits: v/vn/vt lines and f lines with
// v, v/vt, v//vn or v/vt/vn indices; negative (relative) indices are
// resolved against the vertex count seen so far. Faces with more than three
// vertices are fan-triangulated around their first vertex.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	var positions, normals []math3d.Vec3
	var uvs []math3d.Vec2
	mesh := NewMesh(filepath.Base(path))

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			normals = append(normals, n)
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			uvs = append(uvs, uv)
		case "f":
			if err := appendFace(mesh, fields[1:], positions, normals, uvs); err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if !hasNormals {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// WriteOBJ writes mesh as a Wavefront .obj file: one v/vn pair per vertex
// (shared, not per-face) and one f line per triangle, with a usemtl line
// whenever a face's material tag changes from the previous one so the
// CSG material a triangle came from survives in the file as a group marker
// even though this codec never writes a .mtl file. LoadOBJ does not read
// usemtl lines, so a reloaded mesh has material 0 on every face.
func WriteOBJ(path string, mesh *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create obj: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# %s: %d vertices, %d triangles\n", mesh.Name, len(mesh.Vertices), len(mesh.Faces))
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "v %.6f %.6f %.6f\n", v.Position.X, v.Position.Y, v.Position.Z)
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "vn %.6f %.6f %.6f\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
	}

	lastMaterial := -1
	for _, face := range mesh.Faces {
		if face.Material != lastMaterial {
			fmt.Fprintf(w, "usemtl mat%d\n", face.Material)
			lastMaterial = face.Material
		}
		a, b, c := face.V[0]+1, face.V[1]+1, face.V[2]+1
		fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return w.Flush()
}

func parseVec3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	return math3d.V3(x, y, z), nil
}

func parseVec2(fields []string) (math3d.Vec2, error) {
	if len(fields) < 2 {
		return math3d.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	u, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return math3d.Vec2{}, err
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Vec2{}, err
	}
	return math3d.V2(u, v), nil
}

// objIndex resolves a 1-based (or negative, relative) OBJ index against a
// slice of length n.
func objIndex(tok string, n int) (int, error) {
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i = n + i + 1
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("index %d out of range (have %d)", i, n)
	}
	return i - 1, nil
}

func appendFace(mesh *Mesh, tokens []string, positions, normals []math3d.Vec3, uvs []math3d.Vec2) error {
	if len(tokens) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(tokens))
	}
	base := len(mesh.Vertices)
	for _, tok := range tokens {
		parts := strings.Split(tok, "/")
		pi, err := objIndex(parts[0], len(positions))
		if err != nil {
			return fmt.Errorf("vertex index: %w", err)
		}
		v := MeshVertex{Position: positions[pi]}
		if len(parts) >= 2 && parts[1] != "" {
			ti, err := objIndex(parts[1], len(uvs))
			if err != nil {
				return fmt.Errorf("uv index: %w", err)
			}
			v.UV = uvs[ti]
		}
		if len(parts) >= 3 && parts[2] != "" {
			ni, err := objIndex(parts[2], len(normals))
			if err != nil {
				return fmt.Errorf("normal index: %w", err)
			}
			v.Normal = normals[ni]
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}
	for i := 1; i < len(tokens)-1; i++ {
		mesh.Faces = append(mesh.Faces, Face{V: [3]int{base, base + i, base + i + 1}})
	}
	return nil
}
