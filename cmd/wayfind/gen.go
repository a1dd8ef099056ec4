package main

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wayfind-dev/wayfind/internal/config"
	"github.com/wayfind-dev/wayfind/internal/errors"
	"github.com/wayfind-dev/wayfind/pkg/routegen"
)

func genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <type>",
		Short: "Generate code",
		Long: `Generate code from the routes directory.

Types:
  routes   Regenerate the route table from route files

Examples:
  wayfind gen routes
  wayfind gen routes -o app/routes/gen.go`,
	}

	cmd.AddCommand(genRoutesCmd())

	return cmd
}

func genRoutesCmd() *cobra.Command {
	var (
		output string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Generate the route table from route files",
		Long: `Scan the routes directory and regenerate the route table.

Route files follow the naming conventions: index files become index
routes, $-prefixed segments become dynamic parameters, a bare $ is a
splat, and _-prefixed segments are pathless layouts. Aspect suffixes
(.loader, .component, .errorComponent, .pendingComponent,
.notFoundComponent) attach behavior to a route.

The output is deterministic; running it twice without changing route
files produces identical output and skips the write.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenRoutes(dir, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default from wayfind.json)")
	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "Project directory")

	return cmd
}

func runGenRoutes(dir, output string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	gen := cfg.GenerateConfig()
	if output != "" {
		gen.OutputPath = output
	}
	gen.OutputPath = filepath.Join(dir, gen.OutputPath)

	routesDir := filepath.Join(dir, cfg.Routes)
	info("Scanning %s...", routesDir)

	session := &routegen.Session{
		Dir:      routesDir,
		Scan:     cfg.ScanConfig(),
		Generate: gen,
	}

	wrote, err := session.Run()
	if err != nil {
		return codedGenError(err, routesDir, gen.OutputPath)
	}

	if wrote {
		success("Generated %s", gen.OutputPath)
	} else {
		info("No changes to %s", gen.OutputPath)
	}
	return nil
}

// codedGenError maps generator failures onto registered error codes.
func codedGenError(err error, routesDir, output string) error {
	var dup *routegen.DuplicateRouteFileError
	switch {
	case stderrors.As(err, &dup):
		return errors.New("W101").
			WithDetail("%s", dup.Error()).
			WithSuggestion("remove or rename one of the conflicting files").
			Wrap(err)
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.New("W100").
			WithDetail("scanning %s", routesDir).
			WithSuggestion("create the routes directory or set \"routes\" in wayfind.json").
			Wrap(err)
	default:
		return errors.New("W102").
			WithDetail("writing %s", output).
			Wrap(err)
	}
}
