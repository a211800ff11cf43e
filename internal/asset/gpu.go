package asset

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/ecs"
	"github.com/feacur/customengine/internal/gfx"
)

// Asset type names as they appear in manifests and component text.
const (
	TypeShader  = "shader"
	TypeTexture = "texture"
	TypeMesh    = "mesh"
	TypeConfig  = "config"
	TypePrefab  = "prefab"
)

// Shader holds Kage source. The graphics id of a GPU asset is its slot.
type Shader struct {
	Source   []byte
	Resident bool
}

func RegisterShader(s *Store) *Type[Shader] {
	return RegisterType(s, TypeShader, Hooks[Shader]{
		Load: func(s *Store, ref ecs.Ref, resource string, v *Shader) {
			data := s.ReadFile(resource)
			if len(data) == 0 {
				s.log.Error("shader is empty", zap.String("resource", resource))
				return
			}
			v.Source = data
			gfx.AllocateShader(s.loader, ref.ID)
			gfx.LoadShader(s.loader, ref.ID, data)
			v.Resident = true
		},
		Unload: func(s *Store, ref ecs.Ref, v *Shader) {
			if v.Resident {
				gfx.FreeShader(s.loader, ref.ID)
			}
		},
	})
}

// Texture holds decoded pixels, always four channels.
type Texture struct {
	Image    gfx.Image
	Resident bool
}

func RegisterTexture(s *Store) *Type[Texture] {
	return RegisterType(s, TypeTexture, Hooks[Texture]{
		Load: func(s *Store, ref ecs.Ref, resource string, v *Texture) {
			data := s.ReadFile(resource)
			if len(data) == 0 {
				return
			}
			img, err := DecodeImage(data)
			if err != nil {
				s.log.Error("texture decode failed", zap.String("resource", resource), zap.Error(err))
				return
			}
			v.Image = img
			gfx.AllocateTexture(s.loader, ref.ID)
			gfx.LoadTexture(s.loader, ref.ID, img)
			v.Resident = true
		},
		Unload: func(s *Store, ref ecs.Ref, v *Texture) {
			if v.Resident {
				gfx.FreeTexture(s.loader, ref.ID)
			}
		},
	})
}

// DecodeImage decodes PNG, JPEG or GIF data into RGBA pixels.
func DecodeImage(data []byte) (gfx.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gfx.Image{}, err
	}
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	return gfx.Image{
		Width:    uint32(b.Dx()),
		Height:   uint32(b.Dy()),
		Channels: 4,
		Pixels:   rgba.Pix,
	}, nil
}

// Mesh holds parsed vertex data.
type Mesh struct {
	Data     gfx.MeshData
	Resident bool
}

func RegisterMesh(s *Store) *Type[Mesh] {
	return RegisterType(s, TypeMesh, Hooks[Mesh]{
		Load: func(s *Store, ref ecs.Ref, resource string, v *Mesh) {
			data := s.ReadFile(resource)
			if len(data) == 0 {
				return
			}
			m, err := ParseOBJ(data)
			if err != nil {
				s.log.Error("mesh parse failed", zap.String("resource", resource), zap.Error(err))
				return
			}
			v.Data = m
			gfx.AllocateMesh(s.loader, ref.ID)
			gfx.LoadMesh(s.loader, ref.ID, m)
			v.Resident = true
		},
		Unload: func(s *Store, ref ecs.Ref, v *Mesh) {
			if v.Resident {
				gfx.FreeMesh(s.loader, ref.ID)
			}
		},
	})
}
