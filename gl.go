package main

import (
	"fmt"
	"image"
	"runtime"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stewi1014/glmandel/logging"
)

const vertexSource = `#version 410 core

uniform mat4 flip;

in vec2 vert;
out vec2 uv;

void main() {
	gl_Position = vec4(vert, 0.0, 1.0);
	uv = (flip * vec4(vert, 0.0, 1.0)).xy * 0.5 + 0.5;
}
`

const fragmentSource = `#version 410 core

uniform sampler2D tex;

in vec2 uv;
out vec4 outputColor;

void main() {
	outputColor = texture(tex, uv);
}
`

// blitter draws the fractal frame and the premultiplied overlay over the
// whole viewport. All methods need the window's GL context to be current.
type blitter struct {
	program uint32
	vao     uint32
	vbo     uint32

	flip    mgl32.Mat4
	flipLoc int32
	texLoc  int32

	frame   texture
	overlay texture
}

type texture struct {
	id   uint32
	size image.Point
}

func newBlitter(debug bool) (*blitter, error) {
	logging.Logger().Info("OpenGL initialised", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.DebugMessageCallback(glDebugMessage, nil)
	if debug {
		gl.Enable(gl.DEBUG_OUTPUT)
	}

	b := &blitter{
		// Image rows run top to bottom, texture rows bottom to top.
		flip: mgl32.Scale3D(1, -1, 1),
	}

	if err := b.loadProgram(); err != nil {
		return nil, err
	}

	verticies := []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verticies)*4, gl.Ptr(verticies), gl.STATIC_DRAW)

	vertexAttrib := uint32(gl.GetAttribLocation(b.program, gl.Str("vert\x00")))
	gl.EnableVertexAttribArray(vertexAttrib)
	gl.VertexAttribPointerWithOffset(vertexAttrib, 2, gl.FLOAT, false, 2*4, 0)

	b.frame.id = newTexture()
	b.overlay.id = newTexture()
	return b, nil
}

func newTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return id
}

func (b *blitter) uploadFrame(img *image.RGBA) {
	b.frame.upload(img)
}

func (b *blitter) uploadOverlay(img *image.RGBA) {
	b.overlay.upload(img)
}

func (t *texture) upload(img *image.RGBA) {
	size := img.Rect.Size()
	if size.X <= 0 || size.Y <= 0 {
		return
	}

	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	defer gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	if size != t.size {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		t.size = size
		return
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(size.X), int32(size.Y), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
}

// draw fills the current viewport. Nothing but the clear colour is drawn
// before the first frame arrives.
func (b *blitter) draw() {
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(b.program)
	gl.UniformMatrix4fv(b.flipLoc, 1, false, &b.flip[0])
	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(b.texLoc, 0)
	gl.BindVertexArray(b.vao)

	if b.frame.size != (image.Point{}) {
		gl.Disable(gl.BLEND)
		gl.BindTexture(gl.TEXTURE_2D, b.frame.id)
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	}

	if b.overlay.size != (image.Point{}) {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
		gl.BindTexture(gl.TEXTURE_2D, b.overlay.id)
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	}
}

func (b *blitter) delete() {
	gl.DeleteTextures(1, &b.frame.id)
	gl.DeleteTextures(1, &b.overlay.id)
	gl.DeleteBuffers(1, &b.vbo)
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteProgram(b.program)
}

func (b *blitter) loadProgram() error {
	vertexShader, err := compileShader(vertexSource+"\x00", gl.VERTEX_SHADER)
	if err != nil {
		return err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource+"\x00", gl.FRAGMENT_SHADER)
	if err != nil {
		return err
	}
	defer gl.DeleteShader(fragmentShader)

	b.program = gl.CreateProgram()
	gl.AttachShader(b.program, vertexShader)
	gl.AttachShader(b.program, fragmentShader)
	gl.BindFragDataLocation(b.program, 0, gl.Str("outputColor\x00"))
	gl.LinkProgram(b.program)

	var status int32
	gl.GetProgramiv(b.program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetProgramiv(b.program, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetProgramInfoLog(b.program, l, nil, gl.Str(log))
		return fmt.Errorf("failed to link program: %v", log)
	}

	gl.UseProgram(b.program)
	b.flipLoc = gl.GetUniformLocation(b.program, gl.Str("flip\x00"))
	b.texLoc = gl.GetUniformLocation(b.program, gl.Str("tex\x00"))
	return nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	defer runtime.KeepAlive(source)
	cstring, free := gl.Strs(source)
	defer free()

	shader := gl.CreateShader(shaderType)
	gl.ShaderSource(shader, 1, cstring, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(shader, l, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader\n\"\n%v\n\"\nfailed to compile: %v", source, log)
	}

	return shader, nil
}

func glDebugMessage(
	source,
	gltype,
	id,
	severity uint32,
	length int32,
	message string,
	user unsafe.Pointer,
) {
	severityStr := "unknown"
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		severityStr = "high"
	case gl.DEBUG_SEVERITY_MEDIUM:
		severityStr = "medium"
	case gl.DEBUG_SEVERITY_LOW:
		severityStr = "low"
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		severityStr = "notification"
	}

	typeStr := "other"
	switch gltype {
	case gl.DEBUG_TYPE_ERROR:
		typeStr = "error"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		typeStr = "deprecatedBehavior"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		typeStr = "undefinedBehavior"
	case gl.DEBUG_TYPE_PERFORMANCE:
		typeStr = "performance"
	case gl.DEBUG_TYPE_PORTABILITY:
		typeStr = "portability"
	}

	if gltype == gl.DEBUG_TYPE_ERROR {
		logging.Logger().Warn("gl", "severity", severityStr, "type", typeStr, "id", id, "message", message)
		return
	}
	logging.Logger().Debug("gl", "severity", severityStr, "type", typeStr, "id", id, "message", message)
}
