package gfx

import (
	"errors"
	"fmt"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/check"
	"github.com/feacur/customengine/internal/gfx/bytecode"
	"github.com/feacur/customengine/internal/vmath"
)

var (
	// ErrDesync means a payload ran past the end of the buffer.
	ErrDesync = errors.New("gfx: bytecode desync")
	// ErrUnknownInstruction means a tag outside the instruction set was read.
	ErrUnknownInstruction = errors.New("gfx: unknown instruction")
)

// VM is the only interpreter of graphics bytecode. It maps producer-side
// asset ids to backend handles and allocates each id at most once until
// it is freed. Not safe for concurrent use.
type VM struct {
	backend  Backend
	shaders  *intmap.Map[uint32, Handle]
	textures *intmap.Map[uint32, Handle]
	meshes   *intmap.Map[uint32, Handle]
	log      *zap.Logger
	executed int
}

func NewVM(backend Backend, log *zap.Logger) *VM {
	return &VM{
		backend:  backend,
		shaders:  intmap.New[uint32, Handle](64),
		textures: intmap.New[uint32, Handle](64),
		meshes:   intmap.New[uint32, Handle](64),
		log:      log,
	}
}

// Render plays buf from offset 0 to its write cursor, one instruction at a
// time, in the order written. It stops at the first desync or unknown tag.
func (vm *VM) Render(buf *bytecode.Buffer) error {
	buf.Rewind()
	vm.executed = 0
	for buf.Remaining() > 0 {
		o := bytecode.Read[Op](buf)
		if err := vm.exec(o, buf); err != nil {
			return err
		}
		if err := buf.Err(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDesync, o, err)
		}
		vm.executed++
	}
	return nil
}

// Executed returns the instruction count of the last Render.
func (vm *VM) Executed() int { return vm.executed }

// Resident returns how many shaders, textures and meshes are allocated.
func (vm *VM) Resident() (shaders, textures, meshes int) {
	return vm.shaders.Len(), vm.textures.Len(), vm.meshes.Len()
}

func (vm *VM) exec(o Op, buf *bytecode.Buffer) error {
	be := vm.backend
	switch o {
	case OpViewport:
		pos := bytecode.Read[vmath.Vec2i](buf)
		size := bytecode.Read[vmath.Vec2i](buf)
		if buf.Err() == nil {
			be.Viewport(pos, size)
		}
	case OpClear:
		flags := bytecode.Read[ClearFlags](buf)
		if buf.Err() == nil {
			be.Clear(flags)
		}
	case OpClearColor:
		c := bytecode.Read[vmath.Vec4](buf)
		if buf.Err() == nil {
			be.SetClearColor(c)
		}
	case OpDepthRead:
		cmp := bytecode.Read[Comparison](buf)
		if buf.Err() == nil {
			be.SetDepthRead(cmp)
		}
	case OpDepthWrite:
		on := bytecode.Read[bool](buf)
		if buf.Err() == nil {
			be.SetDepthWrite(on)
		}
	case OpBlendMode:
		m := bytecode.Read[BlendMode](buf)
		if buf.Err() == nil {
			be.SetBlendMode(m)
		}
	case OpCullMode:
		m := bytecode.Read[CullMode](buf)
		if buf.Err() == nil {
			be.SetCullMode(m)
		}

	case OpAllocateShader:
		vm.allocate(buf, vm.shaders, "shader", be.CreateShader)
	case OpAllocateTexture:
		vm.allocate(buf, vm.textures, "texture", be.CreateTexture)
	case OpAllocateMesh:
		vm.allocate(buf, vm.meshes, "mesh", be.CreateMesh)
	case OpFreeShader:
		vm.free(buf, vm.shaders, "shader", be.DeleteShader)
	case OpFreeTexture:
		vm.free(buf, vm.textures, "texture", be.DeleteTexture)
	case OpFreeMesh:
		vm.free(buf, vm.meshes, "mesh", be.DeleteMesh)

	case OpUseShader:
		if h, ok := vm.resolve(buf, vm.shaders, "shader"); ok {
			be.UseShader(h)
		}
	case OpUseTexture:
		h, ok := vm.resolve(buf, vm.textures, "texture")
		slot := bytecode.Read[uint32](buf)
		if ok && buf.Err() == nil {
			be.UseTexture(h, slot)
		}
	case OpUseMesh:
		if h, ok := vm.resolve(buf, vm.meshes, "mesh"); ok {
			be.UseMesh(h)
		}

	case OpLoadShader:
		h, ok := vm.resolve(buf, vm.shaders, "shader")
		source := buf.ReadBytes()
		if ok && buf.Err() == nil {
			vm.loaded("shader", be.LoadShader(h, source))
		}
	case OpLoadTexture:
		h, ok := vm.resolve(buf, vm.textures, "texture")
		img := Image{
			Width:    bytecode.Read[uint32](buf),
			Height:   bytecode.Read[uint32](buf),
			Channels: bytecode.Read[uint8](buf),
			Pixels:   buf.ReadBytes(),
		}
		if ok && buf.Err() == nil {
			vm.loaded("texture", be.LoadTexture(h, img))
		}
	case OpLoadMesh:
		h, ok := vm.resolve(buf, vm.meshes, "mesh")
		m := MeshData{
			Attributes: bytecode.ReadSlice[uint32](buf),
			Vertices:   bytecode.ReadSlice[float32](buf),
			Indices:    bytecode.ReadSlice[uint32](buf),
		}
		if ok && buf.Err() == nil {
			vm.loaded("mesh", be.LoadMesh(h, m))
		}
	case OpLoadUniform:
		u := Uniform{Name: buf.ReadString(), Kind: bytecode.Read[UniformKind](buf)}
		if u.Kind == UniformInt {
			u.Ints = bytecode.ReadSlice[int32](buf)
		} else {
			u.Floats = bytecode.ReadSlice[float32](buf)
		}
		if buf.Err() == nil {
			be.LoadUniform(u)
		}
	case OpDraw:
		be.Draw()

	default:
		return fmt.Errorf("%w: %s at offset %d", ErrUnknownInstruction, o, buf.Offset()-1)
	}
	return nil
}

func (vm *VM) allocate(buf *bytecode.Buffer, ids *intmap.Map[uint32, Handle], kind string, create func() Handle) {
	id := bytecode.Read[uint32](buf)
	if buf.Err() != nil {
		return
	}
	if ids.Has(id) {
		check.True(false, "%s %d allocated twice", kind, id)
		return
	}
	ids.Put(id, create())
}

func (vm *VM) free(buf *bytecode.Buffer, ids *intmap.Map[uint32, Handle], kind string, del func(Handle)) {
	id := bytecode.Read[uint32](buf)
	if buf.Err() != nil {
		return
	}
	h, ok := ids.Get(id)
	if !ok {
		check.True(false, "free of unallocated %s %d", kind, id)
		return
	}
	ids.Del(id)
	del(h)
}

func (vm *VM) resolve(buf *bytecode.Buffer, ids *intmap.Map[uint32, Handle], kind string) (Handle, bool) {
	id := bytecode.Read[uint32](buf)
	if buf.Err() != nil {
		return 0, false
	}
	h, ok := ids.Get(id)
	if !ok {
		check.True(false, "use of unallocated %s %d", kind, id)
		return 0, false
	}
	return h, true
}

func (vm *VM) loaded(kind string, err error) {
	if err != nil {
		vm.log.Warn("backend rejected resource", zap.String("kind", kind), zap.Error(err))
	}
}
