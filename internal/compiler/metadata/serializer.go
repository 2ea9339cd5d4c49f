package metadata

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Serialize converts metadata to indented JSON. The same tree always
// serializes to the same bytes, so the output can be diffed and cached.
func Serialize(metadata *Metadata) ([]byte, error) {
	if metadata == nil {
		return nil, fmt.Errorf("metadata cannot be nil")
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize metadata: %w", err)
	}

	return data, nil
}

// Compress gzips data at the best compression level.
func Compress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}

	return decompressed, nil
}

// OutputPath maps a template path to its handoff file inside dir, e.g.
// views/list.html -> dir/views/list.html.json.
func OutputPath(dir, template string) string {
	if filepath.IsAbs(template) {
		template = filepath.Base(template)
	}
	return filepath.Join(dir, template+".json")
}

// WriteToFile writes the JSON handoff to outputPath, creating directories
// as needed.
func WriteToFile(metadata *Metadata, outputPath string) error {
	data, err := encodeFor(metadata, outputPath)
	if err != nil {
		return err
	}
	return writeFile(outputPath, data)
}

// WriteCompressedToFile writes the gzipped JSON handoff to outputPath.
func WriteCompressedToFile(metadata *Metadata, outputPath string) error {
	data, err := encodeFor(metadata, outputPath)
	if err != nil {
		return err
	}

	compressed, err := Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress metadata: %w", err)
	}

	return writeFile(outputPath, compressed)
}

// ReadFile loads a handoff written by WriteToFile or WriteCompressedToFile.
func ReadFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata from %s: %w", path, err)
	}
	if len(data) > 1 && data[0] == 0x1f && data[1] == 0x8b {
		if data, err = Decompress(data); err != nil {
			return nil, err
		}
	}
	m, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata from %s: %w", path, err)
	}
	return m, nil
}

func encodeFor(metadata *Metadata, outputPath string) ([]byte, error) {
	if metadata == nil {
		return nil, fmt.Errorf("metadata cannot be nil")
	}

	if outputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}

	return Serialize(metadata)
}

func writeFile(outputPath string, data []byte) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata to %s: %w", outputPath, err)
	}

	return nil
}
