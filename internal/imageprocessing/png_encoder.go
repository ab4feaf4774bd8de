package imageprocessing

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
)

// EncodePNG encodes a dithered image. Opaque black-and-white images are
// written as 1-bit grayscale, which is what monochrome output usually is;
// everything else goes through image/png as 8-bit RGBA.
func EncodePNG(img *image.NRGBA) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}
	if IsBinaryGray(img) {
		return EncodeMonochromePNG(img)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeMonochromePNG encodes an opaque black-and-white image as a 1-bit
// grayscale PNG (colour type 0). Any red channel value above 127 is written
// as white.
func EncodeMonochromePNG(img *image.NRGBA) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("cannot encode empty image (%dx%d)", width, height)
	}

	var buf bytes.Buffer

	// PNG signature
	buf.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	writeChunk(&buf, "IHDR", func(data *bytes.Buffer) {
		binary.Write(data, binary.BigEndian, uint32(width))
		binary.Write(data, binary.BigEndian, uint32(height))
		data.WriteByte(1) // Bit depth
		data.WriteByte(0) // Color type: Grayscale
		data.WriteByte(0) // Compression method
		data.WriteByte(0) // Filter method
		data.WriteByte(0) // Interlace method
	})

	imageData := packMonochromeRows(img)

	compressedData, err := zlibCompress(imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}

	writeChunk(&buf, "IDAT", func(data *bytes.Buffer) {
		data.Write(compressedData)
	})

	writeChunk(&buf, "IEND", func(data *bytes.Buffer) {})

	return buf.Bytes(), nil
}

// packMonochromeRows packs one bit per pixel, most significant bit first,
// with a filter byte at the start of each row.
func packMonochromeRows(img *image.NRGBA) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerRow := (width + 7) / 8
	data := make([]byte, height*(bytesPerRow+1))

	for y := 0; y < height; y++ {
		rowStart := y * (bytesPerRow + 1)
		data[rowStart] = 0 // Filter type: None

		src := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			if src[x*4] > 127 {
				data[rowStart+1+x/8] |= 0x80 >> (x % 8)
			}
		}
	}

	return data
}

// writeChunk writes a PNG chunk with proper CRC
func writeChunk(buf *bytes.Buffer, chunkType string, dataWriter func(*bytes.Buffer)) {
	var chunkData bytes.Buffer
	dataWriter(&chunkData)

	data := chunkData.Bytes()

	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	binary.Write(buf, binary.BigEndian, crc.Sum32())
}

// zlibCompress compresses data using proper zlib compression
func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}

	return buf.Bytes(), nil
}
