// Package imagestore 图像文件载入
package imagestore

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"golang.org/x/image/tiff"
)

// LoadFile 读取PNG或TIFF文件为二维缓冲区
// 8位灰度图保留为UINT8，16位灰度图保留为UINT16，其余按亮度转为FLOAT
func LoadFile(path string) (*core.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidReference, err)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(f)
	case ".tif", ".tiff":
		img, err = tiff.Decode(f)
	default:
		return nil, fmt.Errorf("%w: 不支持的文件类型 %s", core.ErrUnsupportedType, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("解码 %s 失败: %w", path, err)
	}

	return fromImage(img), nil
}

// fromImage 将image.Image转换为缓冲区，像素按行存放，x变化最快
func fromImage(img image.Image) *core.Buffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		buf := core.NewBuffer(core.TypeUint8, w, h)
		data, _ := core.Data[uint8](buf)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			}
		}
		return buf
	case *image.Gray16:
		buf := core.NewBuffer(core.TypeUint16, w, h)
		data, _ := core.Data[uint16](buf)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
		return buf
	}

	buf := core.NewBuffer(core.TypeFloat32, w, h)
	data, _ := core.Data[float32](buf)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			data[y*w+x] = float32(g.Y)
		}
	}
	return buf
}

// LoadCube 将多幅同尺寸图像堆叠为FLOAT三维立方体，第三维为文件顺序
func LoadCube(paths []string) (*core.Buffer, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: 没有输入文件", core.ErrDimensionality)
	}

	var cube *core.Buffer
	var data []float32
	for k, path := range paths {
		frame, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if cube == nil {
			cube = core.NewBuffer(core.TypeFloat32, frame.Size[0], frame.Size[1], len(paths))
			data, _ = core.Data[float32](cube)
		} else if frame.Size[0] != cube.Size[0] || frame.Size[1] != cube.Size[1] {
			return nil, fmt.Errorf("%w: %s 尺寸 %v 与首帧 %v 不符", core.ErrDimensionality, path, frame.Size, cube.Size[:2])
		}

		ops, err := frame.Ordered()
		if err != nil {
			return nil, err
		}
		offset := k * ops.Len()
		for i := 0; i < ops.Len(); i++ {
			data[offset+i] = float32(ops.At(i))
		}
	}
	return cube, nil
}
