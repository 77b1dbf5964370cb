package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiretree/internal/fetch"
	"github.com/jonathan/hiretree/internal/types"
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Clip a job posting",
	Long:  "Send a job posting to the board. Provide a URL, pasted text (or a text file), or both. With --fetch the posting is downloaded from the URL first.",
	RunE:  runClip,
}

var (
	clipURL      string
	clipText     string
	clipTextFile string
	clipFetch    bool
	clipBrowser  bool
)

func init() {
	clipCmd.Flags().StringVarP(&clipURL, "url", "u", "", "URL of the posting")
	clipCmd.Flags().StringVarP(&clipText, "text", "t", "", "Posting text")
	clipCmd.Flags().StringVar(&clipTextFile, "text-file", "", "Path to a file with the posting text")
	clipCmd.Flags().BoolVar(&clipFetch, "fetch", false, "Download the posting from --url")
	clipCmd.Flags().BoolVar(&clipBrowser, "browser", false, "With --fetch, render the page in headless Chrome")

	rootCmd.AddCommand(clipCmd)
}

func runClip(cmd *cobra.Command, _ []string) error {
	if clipText != "" && clipTextFile != "" {
		return errors.New("--text and --text-file are mutually exclusive; provide only one")
	}
	if clipBrowser && !clipFetch {
		return errors.New("--browser requires --fetch")
	}
	if clipFetch && clipURL == "" {
		return errors.New("--fetch requires --url")
	}
	if clipFetch && (clipText != "" || clipTextFile != "") {
		return errors.New("--fetch cannot be combined with --text or --text-file")
	}

	c, cfg, logger, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	raw := clipText
	switch {
	case clipTextFile != "":
		data, err := os.ReadFile(clipTextFile)
		if err != nil {
			return fmt.Errorf("failed to read text file: %w", err)
		}
		raw = string(data)
	case clipFetch:
		var page *fetch.Page
		if clipBrowser {
			page, err = fetch.Render(ctx, clipURL, cfg.Timeout)
		} else {
			page, err = fetch.Get(ctx, clipURL, fetch.Options{Timeout: cfg.Timeout})
		}
		if err != nil {
			return fmt.Errorf("failed to fetch posting: %w", err)
		}
		logger.Debug("fetched posting", "url", page.URL, "bytes", len(page.HTML))
		if !clipBrowser && fetch.NeedsBrowser(page.HTML) {
			logger.Warn("page has little visible text, it may need --browser", "url", page.URL)
		}
		raw = page.HTML
	}

	resp, err := c.Clip(ctx, types.ClipRequest{URL: clipURL, RawText: raw})
	if err != nil {
		return fmt.Errorf("failed to clip job: %w", err)
	}

	out := cmd.OutOrStdout()
	if resp.Duplicate {
		fmt.Fprintf(out, "Already on the board as job #%d\n", resp.ID)
		return nil
	}
	fmt.Fprintf(out, "Clipped job #%d\n", resp.ID)
	return nil
}
