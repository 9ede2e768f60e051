package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"bannerserver/internal/catalog"
	"bannerserver/internal/domain/layout"
	"bannerserver/internal/infra"
	"bannerserver/internal/selector"
	"bannerserver/internal/sqlinline"
)

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "templatectl",
		Short:         "Inspect and manage banner templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(listCommand(), selectCommand(), validateCommand(), importCommand(), disableCommand(), migrateCommand())
	return root
}

func listCommand() *cobra.Command {
	var resolution string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Builtin()
			if err != nil {
				return err
			}
			items := cat.All()
			if resolution != "" {
				w, h, err := layout.ParseResolution(resolution)
				if err != nil {
					return err
				}
				items = cat.FindByResolution(layout.FormatResolution(w, h))
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRESOLUTION\tIMAGES\tOBJECTS")
			for _, t := range items {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", t.ID, t.Resolution, t.NumImages, len(t.Objects))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&resolution, "resolution", "", "only list templates for this resolution (e.g. 1360x800)")
	return cmd
}

func selectCommand() *cobra.Command {
	var (
		resolution string
		images     int
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run template selection and print the chosen template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Builtin()
			if err != nil {
				return err
			}
			var policy selector.Policy = selector.NewUniformPolicy()
			if cmd.Flags().Changed("seed") {
				policy = selector.NewSeededPolicy(seed)
			}
			sel, err := selector.New(cat, selector.Options{Policy: policy}).Select(cmd.Context(), resolution, images)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "tier: %s\n", sel.Tier)
			return writeJSON(cmd.OutOrStdout(), sel.Template)
		},
	}
	cmd.Flags().StringVar(&resolution, "resolution", "1360x800", "requested resolution")
	cmd.Flags().IntVar(&images, "images", 1, "number of product images")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed the selection for a reproducible pick")
	return cmd
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a template file (a single template or an array)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := readTemplates(args[0])
			if err != nil {
				return err
			}
			var errs []error
			for i, t := range templates {
				if err := t.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("template %d (%s): %w", i, t.ID, err))
				}
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d template(s) valid\n", len(templates))
			return nil
		},
	}
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Store templates in Postgres so the API serves them alongside the built-in set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := readTemplates(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, store *catalog.Store) error {
				for _, t := range templates {
					if err := store.Save(ctx, t); err != nil {
						return fmt.Errorf("save %s: %w", t.ID, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", t.ID)
				}
				return nil
			})
		},
	}
}

func disableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Hide a stored template from the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *catalog.Store) error {
				if err := store.Disable(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "disabled %s\n", args[0])
				return nil
			})
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the template and credential tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd.Context(), func(ctx context.Context, sql *infra.SQLRunner) error {
				if _, err := sql.Exec(ctx, sqlinline.QCreateSchema); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
				return nil
			})
		},
	}
}

// readTemplates accepts either one template object or an array of them.
func readTemplates(path string) ([]layout.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return catalog.Parse(data)
	}
	var t layout.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []layout.Template{t}, nil
}

func withStore(ctx context.Context, fn func(context.Context, *catalog.Store) error) error {
	return withRunner(ctx, func(ctx context.Context, sql *infra.SQLRunner) error {
		return fn(ctx, catalog.NewStore(sql))
	})
}

func withRunner(ctx context.Context, fn func(context.Context, *infra.SQLRunner) error) error {
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connCtx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "").With().Str("cmd", "templatectl").Logger()
	execCtx, cancelExec := context.WithTimeout(ctx, 30*time.Second)
	defer cancelExec()
	return fn(execCtx, infra.NewSQLRunner(pool, logger))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
