package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daimatz/javium/pkg/classfile"
	"github.com/daimatz/javium/pkg/classpath"
	"github.com/daimatz/javium/pkg/config"
	"github.com/daimatz/javium/pkg/report"
)

// ErrUnsupportedVersion is returned for class files newer than
// decode.max_major_version.
var ErrUnsupportedVersion = errors.New("unsupported class file version")

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file|class>...",
		Short: "Decode class files and print their structure",
		Long: `Decode each argument and print its structure.

An argument naming an existing file (or ending in .class or .class.zst) is
read directly. Anything else is taken as a binary class name such as
java/lang/String or java.lang.String and looked up on the classpath.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInspect,
	}
	cmd.Flags().String("classpath", "", "class search path of directories and archives")
	cmd.Flags().String("format", "", "output format: text or cbor")
	cmd.Flags().Int("max-depth", 0, "attribute nesting limit")
	cmd.Flags().Uint16("max-major-version", 0, "reject class files with a newer major version")
	cmd.Flags().IntP("jobs", "j", 4, "number of inputs decoded in parallel")
	cmd.Flags().BoolP("verbose", "v", false, "include the constant pool and raw attribute bytes")
	cmd.Flags().Bool("jdk", false, "append the local JDK's java.base.jmod to the classpath")
	return cmd
}

func inspectConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("max-depth") {
		cfg.Decode.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("max-major-version") {
		cfg.Decode.MaxMajorVersion, _ = flags.GetUint16("max-major-version")
	}
	if flags.Changed("classpath") {
		cp, _ := flags.GetString("classpath")
		cfg.Classpath.Entries = filepath.SplitList(cp)
		cfg.Dir = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := inspectConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	setupColor(cfg.Output.Color, out)
	level, _ := cfg.LogLevel()
	logger := newLogger(cmd.ErrOrStderr(), level)

	dec := classfile.NewDecoder(cfg.DecoderOptions(logger)...)

	entries := cfg.ClasspathEntries()
	if jdk, _ := cmd.Flags().GetBool("jdk"); jdk {
		jmod := findBaseJmod()
		if jmod == "" {
			return errors.New("java.base.jmod not found; set JAVA_HOME or JAVA_BASE_JMOD")
		}
		entries = append(entries, jmod)
	}
	chain, err := classpath.Parse(strings.Join(entries, string(filepath.ListSeparator)), dec)
	if err != nil {
		return err
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}

	results := make([]*classfile.ClassFile, len(args))
	errs := make([]error, len(args))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, arg := range args {
		g.Go(func() error {
			cf, err := loadInput(arg, chain, dec)
			if err == nil {
				if err = checkVersion(cf, cfg.Decode.MaxMajorVersion); err != nil {
					err = fmt.Errorf("%s: %w", arg, err)
				}
			}
			if err != nil {
				logger.Debug().Err(err).Str("input", arg).Msg("decode failed")
				errs[i] = err
				return nil
			}
			results[i] = cf
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	printed := 0
	for i, cf := range results {
		if errs[i] != nil {
			result = multierror.Append(result, errs[i])
			continue
		}
		if err := writeResult(out, cf, cfg, printed > 0); err != nil {
			return err
		}
		printed++
	}
	return result.ErrorOrNil()
}

// loadInput loads a file or a class name. File errors already name the
// path; classpath errors get the argument as written.
func loadInput(arg string, chain classpath.Chain, dec *classfile.Decoder) (*classfile.ClassFile, error) {
	if isFileArg(arg) {
		return classpath.LoadFile(arg, dec)
	}
	cf, err := chain.LoadClass(strings.ReplaceAll(arg, ".", "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	return cf, nil
}

func isFileArg(arg string) bool {
	if strings.HasSuffix(arg, ".class") || strings.HasSuffix(arg, ".class.zst") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

func checkVersion(cf *classfile.ClassFile, limit uint16) error {
	if limit != 0 && cf.MajorVersion > limit {
		return fmt.Errorf("%w: %d.%d (max %d)", ErrUnsupportedVersion, cf.MajorVersion, cf.MinorVersion, limit)
	}
	return nil
}

func writeResult(w io.Writer, cf *classfile.ClassFile, cfg *config.Config, separate bool) error {
	switch cfg.Output.Format {
	case "cbor":
		data, err := report.MarshalCBOR(report.Summarize(cf))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		if separate {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return report.WriteText(w, cf, report.TextOptions{Verbose: cfg.Output.Verbose})
	}
}
