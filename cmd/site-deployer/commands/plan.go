package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/archive"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// PlanCommand returns the plan command for previewing an archive deploy
func PlanCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Aliases:   []string{"p"},
		Usage:     "List the uploads a build archive would produce",
		ArgsUsage: "<archive.zip>",
		Description: `Read a local build archive and print the key, content type, and size of every
object the unpack-site lambda would write. Nothing is uploaded.

Examples:
  # Preview an archive downloaded from the artifact bucket
  site-deployer plan --site-root build artifacts-abc123

  # Sniff content types for files without a known extension, output as YAML
  site-deployer plan --site-root build --sniff --yaml artifacts-abc123`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "site-root",
				Aliases: []string{"r"},
				Usage:   "Folder stripped from each entry path",
				EnvVars: []string{"SITE_ROOT"},
			},
			&cli.BoolFlag{
				Name:    "sniff",
				Usage:   "Inspect file content when the extension is unknown",
				EnvVars: []string{"SNIFF_CONTENT_TYPE"},
			},
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "Output as YAML",
			},
		},
		Action: func(c *cli.Context) error {
			return planAction(c, logger)
		},
	}
}

func planAction(c *cli.Context, logger *zerolog.Logger) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one archive path, got %d", c.NArg())
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", path, err)
	}

	a, err := archive.Open(data)
	if err != nil {
		return err
	}

	uploads, err := a.Plan(c.String("site-root"), c.Bool("sniff"))
	if err != nil {
		return err
	}

	logger.Debug().
		Str("archive", path).
		Int("uploads", len(uploads)).
		Msg("Planned uploads")

	if c.Bool("yaml") {
		out, err := yaml.Marshal(uploads)
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		fmt.Fprint(c.App.Writer, string(out))
		return nil
	}

	printPlan(c.App.Writer, uploads)
	return nil
}

func printPlan(w io.Writer, uploads []archive.Upload) {
	if len(uploads) == 0 {
		fmt.Fprintln(w, "No files to upload")
		return
	}

	keyWidth := len("KEY")
	typeWidth := len("CONTENT TYPE")
	var total uint64
	for _, u := range uploads {
		keyWidth = max(keyWidth, len(u.Key))
		typeWidth = max(typeWidth, len(u.ContentType))
		total += u.Size
	}

	fmt.Fprintf(w, "%-*s  %-*s  %s\n", keyWidth, "KEY", typeWidth, "CONTENT TYPE", "SIZE")
	for _, u := range uploads {
		fmt.Fprintf(w, "%-*s  %-*s  %d\n", keyWidth, u.Key, typeWidth, u.ContentType, u.Size)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d files, %d bytes\n", len(uploads), total)
}
