package classpath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/daimatz/javium/pkg/classfile"
	"github.com/daimatz/javium/pkg/classfile/classfiletest"
)

func classBytes(name string) []byte {
	c := classfiletest.New()
	c.This = c.ClassRef(name)
	c.Super = c.ClassRef("java/lang/Object")
	return c.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeArchive writes a zip holding entries, optionally behind a header.
func writeArchive(t *testing.T, path string, header []byte, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write(header)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func className(t *testing.T, cf *classfile.ClassFile) string {
	t.Helper()
	name, err := cf.ClassName()
	require.NoError(t, err)
	return name
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p", "Hello.class"), classBytes("p/Hello"))
	writeFile(t, filepath.Join(dir, "Broken.class"), []byte{0xCA, 0xFE})

	l := NewDirLoader(dir, classfile.NewDecoder())

	t.Run("load class", func(t *testing.T) {
		cf, err := l.LoadClass("p/Hello")
		require.NoError(t, err)
		require.Equal(t, "p/Hello", className(t, cf))
	})

	t.Run("cached", func(t *testing.T) {
		cf1, err := l.LoadClass("p/Hello")
		require.NoError(t, err)
		cf2, err := l.LoadClass("p/Hello")
		require.NoError(t, err)
		require.Same(t, cf1, cf2)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := l.LoadClass("p/Missing")
		require.ErrorIs(t, err, ErrClassNotFound)
	})

	t.Run("decode failure", func(t *testing.T) {
		_, err := l.LoadClass("Broken")
		require.ErrorIs(t, err, classfile.ErrUnexpectedEndOfInput)
		require.False(t, errors.Is(err, ErrClassNotFound))
	})
}

func TestDirLoaderCompressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Z.class.zst"), enc.EncodeAll(classBytes("Z"), nil))

	cf, err := NewDirLoader(dir, classfile.NewDecoder()).LoadClass("Z")
	require.NoError(t, err)
	require.Equal(t, "Z", className(t, cf))
}

func TestReadFile(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()

	dir := t.TempDir()
	plain := classBytes("A")
	writeFile(t, filepath.Join(dir, "A.class"), plain)
	writeFile(t, filepath.Join(dir, "A.class.zst"), enc.EncodeAll(plain, nil))

	for _, name := range []string{"A.class", "A.class.zst"} {
		got, err := ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, plain, got, name)
	}

	_, err = ReadFile(filepath.Join(dir, "missing.class"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestArchiveLoader(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "app.jar")
	writeArchive(t, jar, nil, map[string][]byte{
		"META-INF/MANIFEST.MF":   []byte("Manifest-Version: 1.0\n"),
		"com/example/Main.class": classBytes("com/example/Main"),
		"com/example/Util.class": classBytes("com/example/Util"),
	})

	l := NewArchiveLoader(jar, classfile.NewDecoder())

	cf, err := l.LoadClass("com/example/Main")
	require.NoError(t, err)
	require.Equal(t, "com/example/Main", className(t, cf))

	again, err := l.LoadClass("com/example/Main")
	require.NoError(t, err)
	require.Same(t, cf, again)

	_, err = l.LoadClass("com/example/Missing")
	require.ErrorIs(t, err, ErrClassNotFound)

	names, err := l.Classes()
	require.NoError(t, err)
	require.Equal(t, []string{"com/example/Main", "com/example/Util"}, names)
}

func TestArchiveLoaderJmod(t *testing.T) {
	dir := t.TempDir()
	jmod := filepath.Join(dir, "java.base.jmod")
	writeArchive(t, jmod, jmodMagic, map[string][]byte{
		"classes/java/lang/Object.class": classBytes("java/lang/Object"),
		"classes/module-info.class":      classBytes("module-info"),
		"lib/libjava.so":                 {0x7F, 'E', 'L', 'F'},
	})

	l := NewArchiveLoader(jmod, classfile.NewDecoder())
	cf, err := l.LoadClass("java/lang/Object")
	require.NoError(t, err)
	require.Equal(t, "java/lang/Object", className(t, cf))

	names, err := l.Classes()
	require.NoError(t, err)
	require.Equal(t, []string{"java/lang/Object", "module-info"}, names)
}

func TestArchiveLoaderErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewArchiveLoader(filepath.Join(dir, "nope.jar"), classfile.NewDecoder()).LoadClass("A")
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jar")
		writeFile(t, path, []byte("definitely not a zip"))
		l := NewArchiveLoader(path, classfile.NewDecoder())
		_, err := l.LoadClass("A")
		require.Error(t, err)
		_, err = l.Classes()
		require.Error(t, err)
	})

	t.Run("jmod without header", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jmod")
		writeArchive(t, path, nil, map[string][]byte{"classes/A.class": classBytes("A")})
		_, err := NewArchiveLoader(path, classfile.NewDecoder()).LoadClass("A")
		require.ErrorContains(t, err, "jmod header")
	})

	t.Run("corrupt entry", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.jar")
		writeArchive(t, path, nil, map[string][]byte{"A.class": {0xDE, 0xAD, 0xBE, 0xEF}})
		_, err := NewArchiveLoader(path, classfile.NewDecoder()).LoadClass("A")
		require.ErrorIs(t, err, classfile.ErrBadMagic)
	})
}

func TestChain(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(first, "A.class"), classBytes("A"))
	writeFile(t, filepath.Join(second, "A.class"), classBytes("A"))
	writeFile(t, filepath.Join(second, "B.class"), classBytes("B"))
	writeFile(t, filepath.Join(first, "C.class"), []byte{0})
	writeFile(t, filepath.Join(second, "C.class"), classBytes("C"))

	dec := classfile.NewDecoder()
	a, b := NewDirLoader(first, dec), NewDirLoader(second, dec)
	chain := Chain{a, b}

	fromChain, err := chain.LoadClass("A")
	require.NoError(t, err)
	fromFirst, err := a.LoadClass("A")
	require.NoError(t, err)
	require.Same(t, fromFirst, fromChain)

	cf, err := chain.LoadClass("B")
	require.NoError(t, err)
	require.Equal(t, "B", className(t, cf))

	// A broken class earlier on the path is reported, not skipped.
	_, err = chain.LoadClass("C")
	require.ErrorIs(t, err, classfile.ErrUnexpectedEndOfInput)

	_, err = chain.LoadClass("D")
	require.ErrorIs(t, err, ErrClassNotFound)
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	writeFile(t, filepath.Join(classes, "A.class"), classBytes("A"))
	jar := filepath.Join(dir, "lib.jar")
	writeArchive(t, jar, nil, map[string][]byte{"B.class": classBytes("B")})

	cp := strings.Join([]string{classes, "", jar}, string(filepath.ListSeparator))
	chain, err := Parse(cp, classfile.NewDecoder())
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.IsType(t, &DirLoader{}, chain[0])
	require.IsType(t, &ArchiveLoader{}, chain[1])

	for _, name := range []string{"A", "B"} {
		cf, err := chain.LoadClass(name)
		require.NoError(t, err)
		require.Equal(t, name, className(t, cf))
	}

	_, err = Parse(filepath.Join(dir, "missing"), classfile.NewDecoder())
	require.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "notes.txt")
	writeFile(t, txt, []byte("x"))
	_, err = Parse(txt, classfile.NewDecoder())
	require.ErrorContains(t, err, "not a directory or archive")

	chain, err = Parse("", classfile.NewDecoder())
	require.NoError(t, err)
	require.Empty(t, chain)
}

func TestConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	writeArchive(t, jar, nil, map[string][]byte{"A.class": classBytes("A")})
	l := NewArchiveLoader(jar, classfile.NewDecoder())

	results := make([]*classfile.ClassFile, 16)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			cf, err := l.LoadClass("A")
			results[i] = cf
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, cf := range results {
		require.Same(t, results[0], cf)
	}
}
