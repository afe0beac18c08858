// Package files loads local documents for upload.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/csheth/chromaseek/internal/api"
)

// Info describes a local document before it is uploaded.
type Info struct {
	Path  string
	Name  string
	Bytes int64
	Pages int
	IsPDF bool
}

// IsPDF reports whether the name carries a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Load reads every path into memory, keeping the given order.
func Load(paths []string) ([]api.File, error) {
	out := make([]api.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, api.File{Name: filepath.Base(path), Data: data})
	}
	return out, nil
}

// Inspect stats the file and, for PDFs, counts pages. A PDF that cannot be
// parsed still returns its size together with the parse error.
func Inspect(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Path:  path,
		Name:  filepath.Base(path),
		Bytes: stat.Size(),
		IsPDF: IsPDF(path),
	}
	if !info.IsPDF || stat.IsDir() {
		return info, nil
	}
	file, reader, err := pdf.Open(path)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return info, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()
	info.Pages = reader.NumPage()
	return info, nil
}
