// Package classpath locates class files in directories and archives and
// decodes them on demand.
package classpath

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/daimatz/javium/pkg/classfile"
)

// ErrClassNotFound is returned when no entry of a loader holds the class.
var ErrClassNotFound = errors.New("class not found")

// ClassLoader loads .class files by internal class name (java/lang/Object).
type ClassLoader interface {
	LoadClass(name string) (*classfile.ClassFile, error)
}

// cache memoises decoded classes. Loaders are shared between goroutines in
// the CLI, so access is serialised.
type cache struct {
	mu      sync.Mutex
	classes map[string]*classfile.ClassFile
}

func (c *cache) get(name string) (*classfile.ClassFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cf, ok := c.classes[name]
	return cf, ok
}

// put stores cf unless another goroutine got there first, and returns the
// instance that won.
func (c *cache) put(name string, cf *classfile.ClassFile) *classfile.ClassFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classes == nil {
		c.classes = make(map[string]*classfile.ClassFile)
	}
	if prev, ok := c.classes[name]; ok {
		return prev
	}
	c.classes[name] = cf
	return cf
}

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// ReadFile reads path, inflating it first when it is zstd-compressed.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", path, err)
	}
	return out, nil
}

// LoadFile decodes the class file at path.
func LoadFile(path string, dec *classfile.Decoder) (*classfile.ClassFile, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cf, err := dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, nil
}

// DirLoader loads classes from a directory tree laid out by package.
type DirLoader struct {
	Root string

	dec   *classfile.Decoder
	cache cache
}

func NewDirLoader(root string, dec *classfile.Decoder) *DirLoader {
	return &DirLoader{Root: root, dec: dec}
}

func (l *DirLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	if cf, ok := l.cache.get(name); ok {
		return cf, nil
	}
	base := filepath.Join(l.Root, filepath.FromSlash(name)+".class")
	for _, path := range []string{base, base + ".zst"} {
		cf, err := LoadFile(path, l.dec)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dir: loading %s: %w", name, err)
		}
		return l.cache.put(name, cf), nil
	}
	return nil, fmt.Errorf("dir: %s in %s: %w", name, l.Root, ErrClassNotFound)
}

func (l *DirLoader) String() string { return l.Root }

// Chain asks each loader in turn and returns the first hit. A loader
// that finds the class but fails to decode it stops the search.
type Chain []ClassLoader

func (c Chain) LoadClass(name string) (*classfile.ClassFile, error) {
	for _, l := range c {
		cf, err := l.LoadClass(name)
		if err == nil {
			return cf, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrClassNotFound)
}

// Parse builds a Chain from a classpath string whose entries are separated
// by the platform list separator. Directories become DirLoaders; .jar,
// .zip and .jmod files become ArchiveLoaders. Empty entries are ignored.
func Parse(list string, dec *classfile.Decoder) (Chain, error) {
	var chain Chain
	for _, entry := range filepath.SplitList(list) {
		if entry == "" {
			continue
		}
		l, err := NewLoader(entry, dec)
		if err != nil {
			return nil, err
		}
		chain = append(chain, l)
	}
	return chain, nil
}

// NewLoader picks the loader for a single classpath entry.
func NewLoader(entry string, dec *classfile.Decoder) (ClassLoader, error) {
	info, err := os.Stat(entry)
	if err != nil {
		return nil, fmt.Errorf("classpath entry: %w", err)
	}
	if info.IsDir() {
		return NewDirLoader(entry, dec), nil
	}
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".jar", ".zip", ".jmod":
		return NewArchiveLoader(entry, dec), nil
	}
	return nil, fmt.Errorf("classpath entry %s: not a directory or archive", entry)
}
