package asset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/feacur/customengine/internal/gfx"
)

var ErrEmptyMesh = errors.New("mesh has no faces")

type objCorner struct{ v, vt, vn int }

// ParseOBJ reads the v, vt, vn and f statements of a Wavefront OBJ file.
// Polygons are fan-triangulated and identical corners share one vertex.
// The vertex layout is position(3) uv(2) normal(3); uv and normal are zero
// when the file has none.
func ParseOBJ(data []byte) (gfx.MeshData, error) {
	var (
		pos  [][3]float32
		uv   [][2]float32
		norm [][3]float32
	)
	out := gfx.MeshData{Attributes: []uint32{3, 2, 3}}
	seen := make(map[objCorner]uint32)

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		args := fields[1:]
		switch fields[0] {
		case "v":
			f, err := objFloats(args, 3)
			if err != nil {
				return gfx.MeshData{}, fmt.Errorf("line %d: %w", line, err)
			}
			pos = append(pos, [3]float32{f[0], f[1], f[2]})
		case "vt":
			f, err := objFloats(args, 2)
			if err != nil {
				return gfx.MeshData{}, fmt.Errorf("line %d: %w", line, err)
			}
			uv = append(uv, [2]float32{f[0], f[1]})
		case "vn":
			f, err := objFloats(args, 3)
			if err != nil {
				return gfx.MeshData{}, fmt.Errorf("line %d: %w", line, err)
			}
			norm = append(norm, [3]float32{f[0], f[1], f[2]})
		case "f":
			if len(args) < 3 {
				return gfx.MeshData{}, fmt.Errorf("line %d: face needs 3 corners, got %d", line, len(args))
			}
			idx := make([]uint32, len(args))
			for i, a := range args {
				c, err := objParseCorner(a, len(pos), len(uv), len(norm))
				if err != nil {
					return gfx.MeshData{}, fmt.Errorf("line %d: %w", line, err)
				}
				n, ok := seen[c]
				if !ok {
					n = uint32(len(out.Vertices) / 8)
					seen[c] = n
					p := pos[c.v]
					out.Vertices = append(out.Vertices, p[0], p[1], p[2])
					if c.vt >= 0 {
						out.Vertices = append(out.Vertices, uv[c.vt][0], uv[c.vt][1])
					} else {
						out.Vertices = append(out.Vertices, 0, 0)
					}
					if c.vn >= 0 {
						out.Vertices = append(out.Vertices, norm[c.vn][0], norm[c.vn][1], norm[c.vn][2])
					} else {
						out.Vertices = append(out.Vertices, 0, 0, 0)
					}
				}
				idx[i] = n
			}
			for i := 1; i+1 < len(idx); i++ {
				out.Indices = append(out.Indices, idx[0], idx[i], idx[i+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return gfx.MeshData{}, err
	}
	if len(out.Indices) == 0 {
		return gfx.MeshData{}, ErrEmptyMesh
	}
	return out, nil
}

func objFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// objParseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn". Indices are
// 1-based; negative ones count back from the end.
func objParseCorner(s string, nv, nvt, nvn int) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return c, fmt.Errorf("bad face corner %q", s)
	}
	dst := []*int{&c.v, &c.vt, &c.vn}
	lim := []int{nv, nvt, nvn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return c, fmt.Errorf("bad face corner %q", s)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return c, fmt.Errorf("bad face corner %q: %w", s, err)
		}
		if n < 0 {
			n = lim[i] + n
		} else {
			n--
		}
		if n < 0 || n >= lim[i] {
			return c, fmt.Errorf("face corner %q out of range", s)
		}
		*dst[i] = n
	}
	return c, nil
}
