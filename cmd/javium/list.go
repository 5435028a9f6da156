package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daimatz/javium/pkg/classfile"
	"github.com/daimatz/javium/pkg/classpath"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List the classes in a jar, zip or jmod archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
	cmd.Flags().Bool("check", false, "decode every class and report the ones that fail")
	cmd.Flags().IntP("jobs", "j", 4, "number of classes decoded in parallel with --check")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupColor(cfg.Output.Color, cmd.OutOrStdout())
	level, _ := cfg.LogLevel()
	logger := newLogger(cmd.ErrOrStderr(), level)

	archive := classpath.NewArchiveLoader(args[0], classfile.NewDecoder(cfg.DecoderOptions(logger)...))
	names, err := archive.Classes()
	if err != nil {
		return err
	}

	check, _ := cmd.Flags().GetBool("check")
	if !check {
		out := cmd.OutOrStdout()
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}
	errs := make([]error, len(names))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, name := range names {
		g.Go(func() error {
			_, errs[i] = archive.LoadClass(name)
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	var result *multierror.Error
	failed := 0
	for i, name := range names {
		if errs[i] != nil {
			failed++
			fmt.Fprintf(out, "%s %s\n", red("FAIL"), name)
			result = multierror.Append(result, errs[i])
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", name)
	}
	logger.Info().Int("classes", len(names)).Int("failed", failed).Msg("archive checked")
	return result.ErrorOrNil()
}
