package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/racepub"
)

var (
	metaFile string
	htmlFile string
	indexOut string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a race report from local files",
	Long: `Commit a race report and its metadata to GitHub, exactly like the
admin form does through POST /api/pubblica. No admin password is needed:
whoever runs this already holds the GitHub token.`,
	Example: `  racepub publish --meta gare-sorgenti/gp-2024.json --html out/gp-2024.html`,
	RunE:    runPublish,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the index of published races",
	RunE:  runIndex,
}

func runPublish(cmd *cobra.Command, args []string) error {
	rawMeta, err := os.ReadFile(metaFile)
	if err != nil {
		return err
	}
	html, err := os.ReadFile(htmlFile)
	if err != nil {
		return err
	}
	var meta racepub.RaceMeta
	dec := json.NewDecoder(bytes.NewReader(rawMeta))
	dec.UseNumber()
	if err := dec.Decode(&meta); err != nil {
		return fmt.Errorf("parse %s: %w", metaFile, err)
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	res, err := app.Publisher.Publish(ctx, racepub.PublishRequest{
		Meta:       meta,
		HTMLBase64: base64.StdEncoding.EncodeToString(html),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", res.Slug)
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	entries, err := app.Index.Entries(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if indexOut == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(indexOut, out, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d races indexed in %s\n", len(entries), indexOut)
	return nil
}
