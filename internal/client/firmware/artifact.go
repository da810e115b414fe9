package firmware

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/iotadmin/internal/cryptox"
)

// AllowedExtensions is the fixed allow-list, in display order.
var AllowedExtensions = []string{".bin", ".hex", ".fw", ".img"}

// ExtensionOf returns the lower-cased substring after the last dot of name,
// including the dot. A name without a dot has no extension.
func ExtensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

func IsAllowed(name string) bool {
	ext := ExtensionOf(name)
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count in base-1024 units with two decimals,
// using the largest unit whose scaled value is at least 1.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v, i := float64(bytes), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, sizeUnits[i])
}

// Source tells where a candidate artifact came from.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
)

// Artifact is a firmware file staged for upload.
type Artifact struct {
	Name      string
	Path      string
	Size      int64
	Extension string
	Source    Source

	open func() (io.ReadCloser, error)
}

// NewArtifact describes a candidate whose bytes are produced by open.
func NewArtifact(name string, size int64, src Source, open func() (io.ReadCloser, error)) *Artifact {
	return &Artifact{
		Name:      name,
		Size:      size,
		Extension: ExtensionOf(name),
		Source:    src,
		open:      open,
	}
}

// ArtifactFromFile stats path and returns a candidate that reopens the file
// on every Open.
func ArtifactFromFile(path string, src Source) (*Artifact, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	a := NewArtifact(fi.Name(), fi.Size(), src, func() (io.ReadCloser, error) {
		return os.Open(abs)
	})
	a.Path = abs
	return a, nil
}

// Open returns a fresh stream of the artifact's bytes.
func (a *Artifact) Open() (io.ReadCloser, error) {
	if a.open == nil {
		return nil, fmt.Errorf("artifact %s has no byte source", a.Name)
	}
	return a.open()
}

// key identifies the artifact for picker change detection.
func (a *Artifact) key() string {
	if a.Path != "" {
		return a.Path
	}
	return a.Name
}

// Digest returns the SHA-256 of the artifact's bytes.
func (a *Artifact) Digest() (string, error) {
	rc, err := a.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	digest, _, err := cryptox.SHA256Hex(rc)
	return digest, err
}
