package storage

import "strings"

// ResourceKind tags the payload variant a descriptor may carry.
type ResourceKind int

const (
	KindEmpty ResourceKind = iota
	KindImage
	KindFont
	KindShader
	KindModel
)

func (k ResourceKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindFont:
		return "font"
	case KindShader:
		return "shader"
	case KindModel:
		return "model"
	}
	return "empty"
}

type ShaderType int

const (
	ShaderUnknown ShaderType = iota
	ShaderVertex
	ShaderFragment
	ShaderGeometry
)

func (t ShaderType) String() string {
	switch t {
	case ShaderVertex:
		return "vertex"
	case ShaderFragment:
		return "fragment"
	case ShaderGeometry:
		return "geometry"
	}
	return "unknown"
}

// ShaderProgramInfo is a shader stage binary as read from disk.
type ShaderProgramInfo struct {
	Type   ShaderType
	Binary []byte
}

type ImageInfo struct {
	Width    uint32
	Height   uint32
	Depth    uint32
	Channels uint32
	Pixels   []byte
}

type FontInfo struct {
	Charset string
	Size    int
}

type ModelInfo struct{}

// ResourceDesc is one registered resource. The payload starts empty and is
// filled in on first access; InMemory reports whether that happened.
type ResourceDesc struct {
	ID       uint64
	Name     string
	Path     string
	InMemory bool

	kind   ResourceKind
	shader *ShaderProgramInfo
	image  *ImageInfo
	model  *ModelInfo
}

// Kind reports the payload variant this descriptor is registered for.
func (r *ResourceDesc) Kind() ResourceKind {
	return r.kind
}

// Asset groups the resources discovered under one root or manifest.
type Asset struct {
	Name      string
	Version   string
	Path      string
	Resources []*ResourceDesc
}

// loadShader decodes shader bytes into a payload. The stage is inferred from
// a filename substring, e.g. "Base.vert.spv" is a vertex shader.
func loadShader(name string, data []byte) *ShaderProgramInfo {
	return &ShaderProgramInfo{Type: shaderTypeOf(name), Binary: data}
}

func shaderTypeOf(name string) ShaderType {
	switch {
	case strings.Contains(name, ".vert"):
		return ShaderVertex
	case strings.Contains(name, ".frag"):
		return ShaderFragment
	case strings.Contains(name, ".geom"):
		return ShaderGeometry
	}
	return ShaderUnknown
}

func loadImage(string) *ImageInfo {
	// TODO: decode with image/png once textured drawing lands.
	return nil
}

func loadModel(string) *ModelInfo {
	return nil
}
