package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/javium/pkg/classfile"
	"github.com/daimatz/javium/pkg/classfile/classfiletest"
	"github.com/daimatz/javium/pkg/report"
)

func classBytes(name string, major uint16) []byte {
	c := classfiletest.New()
	c.Major = major
	c.This = c.ClassRef(name)
	c.Super = c.ClassRef("java/lang/Object")
	c.Attributes = append(c.Attributes, c.Attr("SourceFile", []byte{0, byte(c.Utf8("X.java"))}))
	return c.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeJar(t *testing.T, path string, entries map[string][]byte) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func zstdCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

// run executes the root command in an empty working directory.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	return runHere(t, args...)
}

func runHere(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--color", "never"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "javium 0.1.0-dev\n", out)
}

func TestInspectFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "Hello.class"), classBytes("p/Hello", 61))

	out, _, err := run(t, "inspect", path)
	require.NoError(t, err)
	require.Contains(t, out, "class p/Hello\n")
	require.Contains(t, out, "  major version: 61\n")
	require.NotContains(t, out, "Constant pool:")

	out, _, err = run(t, "inspect", "-v", path)
	require.NoError(t, err)
	require.Contains(t, out, "Constant pool:\n")
}

func TestInspectFromClasspath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p", "A.class"), classBytes("p/A", 52))
	jar := writeJar(t, filepath.Join(t.TempDir(), "lib.jar"), map[string][]byte{
		"q/B.class": classBytes("q/B", 52),
	})
	cp := dir + string(filepath.ListSeparator) + jar

	out, _, err := run(t, "inspect", "--classpath", cp, "p/A", "q.B")
	require.NoError(t, err)
	require.Contains(t, out, "class p/A\n")
	require.Contains(t, out, "class q/B\n")
	require.Less(t, bytes.Index([]byte(out), []byte("class p/A")), bytes.Index([]byte(out), []byte("class q/B")))
}

func TestInspectUsesConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "classes", "p", "A.class"), classBytes("p/A", 52))
	writeFile(t, filepath.Join(root, "javium.toml"), []byte(`
[classpath]
entries = ["classes"]

[output]
verbose = true
`))
	sub := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	out, _, err := runHere(t, "inspect", "p.A")
	require.NoError(t, err)
	require.Contains(t, out, "class p/A\n")
	require.Contains(t, out, "Constant pool:\n")

	out, _, err = runHere(t, "inspect", "--verbose=false", "p.A")
	require.NoError(t, err)
	require.NotContains(t, out, "Constant pool:")
}

func TestInspectBadConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "javium.toml"), []byte("[output]\nformat = \"yaml\"\n"))
	t.Chdir(root)

	_, _, err := runHere(t, "inspect", "X.class")
	require.ErrorContains(t, err, "output.format")
}

func TestInspectAggregatesErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "Good.class"), classBytes("Good", 52))
	bad := writeFile(t, filepath.Join(dir, "Bad.class"), []byte{0xCA, 0xFE, 0xBA})
	missing := filepath.Join(dir, "Missing.class")

	out, _, err := run(t, "inspect", bad, good, missing, "no.such.Class")
	require.Error(t, err)
	require.Contains(t, out, "class Good\n")
	require.ErrorContains(t, err, "3 errors occurred")
	require.ErrorContains(t, err, bad+": ")
	require.Equal(t, 1, strings.Count(err.Error(), bad))
	require.Equal(t, 1, strings.Count(err.Error(), missing))
	require.ErrorContains(t, err, "no.such.Class: ")
	require.ErrorContains(t, err, "class not found")
}

func TestInspectVersionGate(t *testing.T) {
	dir := t.TempDir()
	old := writeFile(t, filepath.Join(dir, "Old.class"), classBytes("Old", 52))
	young := writeFile(t, filepath.Join(dir, "New.class"), classBytes("New", 65))

	out, _, err := run(t, "inspect", "--max-major-version", "61", old, young)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
	require.ErrorContains(t, err, "65.0 (max 61)")
	require.Contains(t, out, "class Old\n")
	require.NotContains(t, out, "class New")
}

func TestInspectMaxDepth(t *testing.T) {
	c := classfiletest.New()
	c.This = c.ClassRef("Deep")
	inner := c.Attr("Code", classfiletest.Code(0, 0, []byte{0xB1}, nil))
	outer := c.Attr("Code", classfiletest.Code(0, 0, []byte{0xB1}, nil, inner))
	c.AddMethod(0x0001, "m", "()V", outer)
	path := writeFile(t, filepath.Join(t.TempDir(), "Deep.class"), c.Bytes())

	_, _, err := run(t, "inspect", path)
	require.NoError(t, err)

	_, _, err = run(t, "inspect", "--max-depth", "1", path)
	require.ErrorIs(t, err, classfile.ErrUnsupportedNesting)
}

func TestInspectCBOR(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "A.class"), classBytes("A", 52))
	b := writeFile(t, filepath.Join(dir, "B.class"), classBytes("B", 52))

	out, _, err := run(t, "inspect", "--format", "cbor", "-j", "1", a, b)
	require.NoError(t, err)

	dec := cbor.NewDecoder(bytes.NewReader([]byte(out)))
	var names []string
	for {
		var s report.Summary
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"A", "B"}, names)
}

func TestInspectZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Z.class.zst")
	writeFile(t, path, zstdCompress(t, classBytes("Z", 52)))

	out, _, err := run(t, "inspect", path)
	require.NoError(t, err)
	require.Contains(t, out, "class Z\n")
}

func TestInspectJDKNotFound(t *testing.T) {
	t.Setenv("JAVA_BASE_JMOD", "")
	t.Setenv("JAVA_HOME", t.TempDir())
	if findBaseJmod() != "" {
		t.Skip("a system JDK is installed")
	}
	_, _, err := run(t, "inspect", "--jdk", "java.lang.Object")
	require.ErrorContains(t, err, "java.base.jmod not found")
}

func TestFindBaseJmod(t *testing.T) {
	home := t.TempDir()
	jmod := writeFile(t, filepath.Join(home, "jmods", "java.base.jmod"), []byte("JM"))

	t.Setenv("JAVA_BASE_JMOD", "")
	t.Setenv("JAVA_HOME", home)
	require.Equal(t, jmod, findBaseJmod())

	t.Setenv("JAVA_BASE_JMOD", "/opt/base.jmod")
	require.Equal(t, "/opt/base.jmod", findBaseJmod())
}

func TestListCmd(t *testing.T) {
	jar := writeJar(t, filepath.Join(t.TempDir(), "lib.jar"), map[string][]byte{
		"b/B.class":            classBytes("b/B", 52),
		"a/A.class":            classBytes("a/A", 52),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"c/Broken.class":       {0xCA, 0xFE},
	})

	out, _, err := run(t, "list", jar)
	require.NoError(t, err)
	require.Equal(t, "a/A\nb/B\nc/Broken\n", out)

	out, _, err = run(t, "list", "--check", jar)
	require.ErrorContains(t, err, "c/Broken")
	require.Equal(t, "ok   a/A\nok   b/B\nFAIL c/Broken\n", out)
}

func TestListNotAnArchive(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "x.jar"), []byte("not a zip"))
	_, _, err := run(t, "list", path)
	require.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	_, _, err := run(t, "list", "--log-level", "chatty", "x.jar")
	require.ErrorContains(t, err, "log.level")
}
