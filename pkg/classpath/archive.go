package classpath

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/daimatz/javium/pkg/classfile"
)

var jmodMagic = []byte{'J', 'M', 0x01, 0x00}

// ArchiveLoader loads classes from a jar, zip or JDK jmod file. The archive
// is read into memory on first use.
type ArchiveLoader struct {
	Path string

	dec    *classfile.Decoder
	cache  cache
	once   sync.Once
	err    error
	prefix string
	files  map[string]*zip.File
}

func NewArchiveLoader(path string, dec *classfile.Decoder) *ArchiveLoader {
	return &ArchiveLoader{Path: path, dec: dec}
}

func (l *ArchiveLoader) open() error {
	l.once.Do(func() {
		data, err := os.ReadFile(l.Path)
		if err != nil {
			l.err = fmt.Errorf("archive: reading %s: %w", l.Path, err)
			return
		}
		if strings.EqualFold(filepath.Ext(l.Path), ".jmod") {
			if !bytes.HasPrefix(data, jmodMagic) {
				l.err = fmt.Errorf("archive: %s: missing jmod header", l.Path)
				return
			}
			data = data[len(jmodMagic):]
			l.prefix = "classes/"
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			l.err = fmt.Errorf("archive: opening %s: %w", l.Path, err)
			return
		}
		l.files = make(map[string]*zip.File, len(zr.File))
		for _, f := range zr.File {
			l.files[f.Name] = f
		}
	})
	return l.err
}

func (l *ArchiveLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, ok := l.cache.get(name); ok {
		return cf, nil
	}
	if err := l.open(); err != nil {
		return nil, err
	}

	target := l.prefix + name + ".class"
	f, ok := l.files[target]
	if !ok {
		return nil, fmt.Errorf("archive: %s in %s: %w", name, l.Path, ErrClassNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", target, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archive: reading %s: %w", target, err)
	}

	cf, err := l.dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("archive: parsing %s: %w", name, err)
	}
	return l.cache.put(name, cf), nil
}

// Classes lists the internal names of every class in the archive, sorted.
func (l *ArchiveLoader) Classes() ([]string, error) {
	if err := l.open(); err != nil {
		return nil, err
	}
	var names []string
	for entry := range l.files {
		if !strings.HasPrefix(entry, l.prefix) || !strings.HasSuffix(entry, ".class") {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(entry, l.prefix), ".class"))
	}
	sort.Strings(names)
	return names, nil
}

func (l *ArchiveLoader) String() string { return l.Path }
