// Package main provides the CLI entry point for the ACRA deck engine.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/openlabollioules/ACRA/pkg/deck"
	"github.com/openlabollioules/ACRA/pkg/deck/output"
	"github.com/openlabollioules/ACRA/pkg/deck/writer"
	"github.com/openlabollioules/ACRA/pkg/deck/xlsx"
	"github.com/openlabollioules/ACRA/pkg/server"
	"github.com/openlabollioules/ACRA/pkg/store"
)

var (
	outputPath string
	pretty     bool
	withColor  bool
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "acra",
		Short: "Parse, edit and re-render activity report decks",
		Long: `acra extracts structured content (titles, tables with spans and
alert markup, images) from presentation decks, edits it in place and
serializes it back into valid packages.`,
	}

	structureCmd := &cobra.Command{
		Use:   "structure [deck.pptx...]",
		Short: "Print the structured slide content as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStructure,
	}
	structureCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	structureCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	structureCmd.Flags().BoolVar(&withColor, "color", false, "Keep tier color tags in the output")

	projectsCmd := &cobra.Command{
		Use:   "projects [deck.pptx]",
		Short: "Print the project payload derived from the activity table",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjects,
	}
	projectsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	projectsCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rewriteCmd := &cobra.Command{
		Use:   "rewrite [deck.pptx]",
		Short: "Parse a deck and render it back through the engine",
		Args:  cobra.ExactArgs(1),
		RunE:  runRewrite,
	}
	rewriteCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output deck path (required)")
	rewriteCmd.MarkFlagRequired("output")

	xlsxCmd := &cobra.Command{
		Use:   "xlsx [deck.pptx]",
		Short: "Export the deck's tables to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runXlsx,
	}
	xlsxCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path (required)")
	xlsxCmd.MarkFlagRequired("output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session deck HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "YAML config path (default: $ACRA_CONFIG_PATH)")

	rootCmd.AddCommand(structureCmd, projectsCmd, rewriteCmd, xlsxCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runStructure(cmd *cobra.Command, args []string) error {
	payload := make([]output.DeckStructure, 0, len(args))
	for _, path := range args {
		doc, err := deck.ParseFile(path, deck.Options{SkipMedia: true})
		if err != nil {
			return err
		}
		payload = append(payload, output.Describe(doc, withColor))
	}
	data, err := output.ToJSON(map[string]any{"decks": payload}, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return emit(data)
}

func runProjects(cmd *cobra.Command, args []string) error {
	doc, err := deck.ParseFile(args[0], deck.Options{SkipMedia: true})
	if err != nil {
		return err
	}
	if doc.Projects == nil {
		return fmt.Errorf("%s: no activity table on the first slide", args[0])
	}
	data, err := output.ToJSON(doc.Projects, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return emit(data)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	doc, err := deck.ParseFile(args[0], deck.DefaultOptions())
	if err != nil {
		return err
	}
	rendered, err := writer.Render(doc, nil)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return os.WriteFile(outputPath, rendered, 0o644)
}

func runXlsx(cmd *cobra.Command, args []string) error {
	doc, err := deck.ParseFile(args[0], deck.Options{SkipMedia: true})
	if err != nil {
		return err
	}
	data, err := xlsx.Export(doc)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := server.Load(configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	st, err := store.Open(cfg.DBPath, cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(st, logger, cfg.Palette())
	logger.Info("listening", "addr", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, srv.Router())
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func emit(data []byte) error {
	if outputPath != "" {
		return os.WriteFile(outputPath, data, 0o644)
	}
	fmt.Println(string(data))
	return nil
}
