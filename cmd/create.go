// Package cmd — create command.
// Runs the URL-to-capsule pipeline once from the terminal, printing
// progress as it goes. The capsule is persisted like any other; with
// --export it is additionally written to disk.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/codecapsule/cache"
	"github.com/gaurav-prasanna/codecapsule/config"
	"github.com/gaurav-prasanna/codecapsule/core"
	"github.com/gaurav-prasanna/codecapsule/core/output"
	"github.com/gaurav-prasanna/codecapsule/core/render"
	"github.com/gaurav-prasanna/codecapsule/store"
)

// Flag variables.
var (
	flagUser          string
	flagExport        string
	flagOutputDir     string
	flagCreateMockLLM bool
)

// localUserEmail identifies the fallback user created for CLI runs
// when --user is not given.
const localUserEmail = "local@codecapsule.dev"

var createCmd = &cobra.Command{
	Use:   "create <url>",
	Short: "Create a learning capsule from a URL",
	Long: `Create fetches a webpage, extracts and normalizes its main content,
and generates a paginated learning capsule, saving it to the local
database.

Examples:
  codecapsule create https://example.com/article
  codecapsule create https://example.com/article --export pdf
  codecapsule create https://example.com/article --export md --output_dir ./out
  codecapsule create https://example.com/article --mock-llm`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&flagUser, "user", "", "User id to attribute the capsule to (default: a local user)")
	createCmd.Flags().StringVar(&flagExport, "export", "", "Also export the capsule: md, json, or pdf")
	createCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Export directory (default: current directory)")
	createCmd.Flags().BoolVar(&flagCreateMockLLM, "mock-llm", false, "Use the built-in mock generator instead of the configured LLM")
}

func runCreate(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	var renderer render.Renderer
	switch flagExport {
	case "":
	case "md":
		renderer = render.NewMarkdownRenderer()
	case "json":
		renderer = render.NewJSONRenderer()
	case "pdf":
		renderer = render.NewPDFRenderer()
	default:
		return fmt.Errorf("unknown export format %q (expected md, json, or pdf)", flagExport)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log := newLogger()

	st, err := store.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gen, err := newGenerator(cfg, flagCreateMockLLM)
	if err != nil {
		return err
	}

	ctx := context.Background()

	userID := flagUser
	if userID == "" {
		userID, err = localUser(ctx, st)
		if err != nil {
			return err
		}
	}

	c := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	runner := newRunner(cfg, st, c, gen, log)

	result := runner.Run(ctx, rawURL, userID, func(ev core.ProgressEvent) {
		if ev.Step == core.StepFailed {
			fmt.Fprintf(os.Stderr, "✗ %s\n", ev.Error)
			return
		}
		fmt.Fprintf(os.Stdout, "%s\n", ev.Message)
	})
	if result.Err != nil {
		return result.Err
	}
	fmt.Fprintf(os.Stdout, "✓ Capsule created: %s\n", result.ID)

	if renderer == nil {
		return nil
	}

	capsule, err := st.GetCapsule(ctx, result.ID)
	if err != nil {
		return fmt.Errorf("reading capsule back: %w", err)
	}
	data, err := renderer.Render(capsule)
	if err != nil {
		return fmt.Errorf("rendering export: %w", err)
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	path, err := writer.Write(capsule.Title, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// localUser finds or creates the default user for CLI-created capsules.
func localUser(ctx context.Context, st *store.Store) (string, error) {
	u, err := st.GetUserByEmail(ctx, localUserEmail)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("looking up local user: %w", err)
	}
	id, err := st.CreateUser(ctx, "Local User", localUserEmail)
	if err != nil {
		return "", fmt.Errorf("creating local user: %w", err)
	}
	return id, nil
}
