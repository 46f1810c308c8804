package vulkan

import (
	"encoding/binary"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type ShaderType int

const (
	ShaderUnknown ShaderType = iota
	ShaderVertex
	ShaderFragment
	ShaderGeometry
)

// ShaderStage is one SPIR-V binary tagged with the stage it feeds.
type ShaderStage struct {
	Type   ShaderType
	Binary []byte
}

type CreatePipelineInfo struct {
	Device     vk.Device
	RenderPass vk.RenderPass
	Shaders    []ShaderStage
}

// Pipeline is the fixed-function graphics pipeline with its empty layout.
// Viewport and scissor are dynamic, everything else is baked in.
type Pipeline struct {
	device vk.Device

	Layout vk.PipelineLayout
	Handle vk.Pipeline
}

// CreatePipeline compiles shader modules out of the given binaries, builds
// the pipeline around them and releases the modules again. The pipeline
// renders plain triangle lists with no vertex input.
func CreatePipeline(info CreatePipelineInfo) (*Pipeline, error) {
	p := &Pipeline{device: info.Device}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(info.Shaders))
	modules := make([]vk.ShaderModule, 0, len(info.Shaders))
	defer func() {
		for _, m := range modules {
			vk.DestroyShaderModule(info.Device, m, nil)
		}
	}()

	for _, shader := range info.Shaders {
		stage, err := stageBit(shader.Type)
		if err != nil {
			p.Destroy()
			return nil, err
		}
		module, err := createShaderModule(info.Device, shader.Binary)
		if err != nil {
			p.Destroy()
			return nil, errors.Wrap(err, "pipeline: create shader module")
		}
		modules = append(modules, module)
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  "main\x00",
		})
	}

	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(info.Device, &vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}, nil, &layout)
	if err := Error(ret); err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "pipeline: create layout")
	}
	p.Layout = layout

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(info.Device, nil, 1,
		[]vk.GraphicsPipelineCreateInfo{{
			SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
			StageCount: uint32(len(stages)),
			PStages:    stages,
			PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
				SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
			},
			PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
				SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
				Topology: vk.PrimitiveTopologyTriangleList,
			},
			PViewportState: &vk.PipelineViewportStateCreateInfo{
				SType:         vk.StructureTypePipelineViewportStateCreateInfo,
				ViewportCount: 1,
				ScissorCount:  1,
			},
			PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
				SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
				PolygonMode: vk.PolygonModeFill,
				CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
				FrontFace:   vk.FrontFaceClockwise,
				LineWidth:   1.0,
			},
			PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
				SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
				RasterizationSamples: vk.SampleCount1Bit,
			},
			PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
				SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
				LogicOp:         vk.LogicOpCopy,
				AttachmentCount: 1,
				PAttachments: []vk.PipelineColorBlendAttachmentState{{
					BlendEnable: vk.False,
					ColorWriteMask: vk.ColorComponentFlags(
						vk.ColorComponentRBit | vk.ColorComponentGBit |
							vk.ColorComponentBBit | vk.ColorComponentABit),
				}},
			},
			PDynamicState: &vk.PipelineDynamicStateCreateInfo{
				SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
				DynamicStateCount: uint32(len(dynamicStates)),
				PDynamicStates:    dynamicStates,
			},
			Layout:     layout,
			RenderPass: info.RenderPass,
			Subpass:    0,
		}}, nil, pipelines)
	if err := Error(ret); err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "pipeline: create graphics pipeline")
	}
	p.Handle = pipelines[0]

	return p, nil
}

func stageBit(t ShaderType) (vk.ShaderStageFlagBits, error) {
	switch t {
	case ShaderVertex:
		return vk.ShaderStageVertexBit, nil
	case ShaderFragment:
		return vk.ShaderStageFragmentBit, nil
	case ShaderGeometry:
		return vk.ShaderStageGeometryBit, nil
	}
	return 0, errors.Errorf("unknown shader stage %d", t)
}

func createShaderModule(device vk.Device, data []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    repackUint32(data),
	}, nil, &module)
	if err := Error(ret); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

// repackUint32 reinterprets a SPIR-V byte stream as the word stream the API
// wants. SPIR-V is little-endian on disk.
func repackUint32(data []byte) []uint32 {
	buf := make([]uint32, len(data)/4)
	for i := range buf {
		buf[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return buf
}

func (p *Pipeline) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(p.device, p.Handle, nil)
		p.Handle = vk.NullPipeline
	}
	if p.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(p.device, p.Layout, nil)
		p.Layout = vk.NullPipelineLayout
	}
}
