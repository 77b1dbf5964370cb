package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiretree/internal/client"
	"github.com/jonathan/hiretree/internal/observability"
	"github.com/jonathan/hiretree/internal/profile"
	"github.com/jonathan/hiretree/internal/skills"
	"github.com/jonathan/hiretree/internal/types"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "List resumes and manage the active one",
	Long:  "List every resume with its skills grouped by recency. The active resume, marked with *, is used to score jobs.",
	Args:  cobra.NoArgs,
	RunE:  runResumes,
}

var activateCmd = &cobra.Command{
	Use:   "activate <resume-id>",
	Short: "Make a resume the active one",
	Args:  cobra.ExactArgs(1),
	RunE: withResumeList(func(cmd *cobra.Command, s *resumeSession, args []string) error {
		if err := s.list.SetActive(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resume %s is now active\n", args[0])
		return nil
	}),
}

var renameCmd = &cobra.Command{
	Use:   "rename <resume-id> <name>",
	Short: "Rename a resume",
	Args:  cobra.MinimumNArgs(2),
	RunE: withResumeList(func(cmd *cobra.Command, s *resumeSession, args []string) error {
		name := strings.Join(args[1:], " ")
		if err := s.list.Rename(cmd.Context(), args[0], name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resume %s renamed to %q\n", args[0], strings.TrimSpace(name))
		return nil
	}),
}

var deleteResumeCmd = &cobra.Command{
	Use:   "delete <resume-id>",
	Short: "Delete a resume",
	Args:  cobra.ExactArgs(1),
	RunE: withResumeList(func(cmd *cobra.Command, s *resumeSession, args []string) error {
		if err := s.list.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Resume %s deleted\n", args[0])
		if active, ok := s.list.Active(); ok {
			fmt.Fprintf(out, "Active resume: %s\n", active.Name)
		}
		return nil
	}),
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a PDF or DOCX resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var (
	uploadName     string
	uploadActivate bool
	onlyActive     bool
)

func init() {
	resumesCmd.Flags().BoolVar(&onlyActive, "active", false, "Only show the active resume")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Display name (default: file name)")
	uploadCmd.Flags().BoolVar(&uploadActivate, "activate", false, "Make the uploaded resume active")

	resumesCmd.AddCommand(activateCmd, renameCmd, deleteResumeCmd, uploadCmd)
	rootCmd.AddCommand(resumesCmd)
}

// resumeSession is a client with the resume list already loaded.
type resumeSession struct {
	client *client.Client
	logger *slog.Logger
	list   *profile.ResumeList
}

// withResumeList loads the resume list before running fn.
func withResumeList(fn func(*cobra.Command, *resumeSession, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, _, logger, err := newClient(cmd)
		if err != nil {
			return err
		}
		list := profile.NewResumeList(c, logger)
		defer list.Close()
		if err := list.Load(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd, &resumeSession{client: c, logger: logger, list: list}, args)
	}
}

func runResumes(cmd *cobra.Command, args []string) error {
	return withResumeList(func(cmd *cobra.Command, s *resumeSession, _ []string) error {
		out := cmd.OutOrStdout()
		if onlyActive {
			active, ok := s.list.Active()
			if !ok {
				return errors.New("no active resume")
			}
			observability.NewPrinter(out).PrintResume(&active)
			return nil
		}
		resumes := s.list.Resumes()
		if len(resumes) == 0 {
			fmt.Fprintln(out, "No resumes yet. Upload one with 'hiretree resumes upload <file>'.")
			return nil
		}
		for i, r := range resumes {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printResume(out, r)
		}
		return nil
	})(cmd, args)
}

// printResume shows the active resume grouped by recency and the others on one line.
func printResume(w io.Writer, r types.Resume) {
	marker := " "
	if r.IsActive {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %s  (%s, %s)\n", marker, r.Name, r.ID, r.Source)
	if r.CurrentRole != "" {
		fmt.Fprintf(w, "    %s, %d years\n", r.CurrentRole, r.YearsExperience)
	}

	if !r.IsActive {
		if len(r.Skills) > 0 {
			fmt.Fprintf(w, "    %s\n", skills.Compact(r.Skills))
		}
		return
	}

	grouped, other := skills.ByRecency(r.Skills)
	for _, tier := range grouped {
		fmt.Fprintf(w, "    %s:\n", tier.Label)
		for _, s := range tier.Skills {
			printSkill(w, s)
		}
	}
	if len(other) > 0 {
		fmt.Fprintln(w, "    Other:")
		for _, s := range other {
			printSkill(w, s)
		}
	}
}

func printSkill(w io.Writer, s types.Skill) {
	line := fmt.Sprintf("      %-16s %s", s.Name, skills.Stars(skills.EffectiveRating(s)))
	if s.Years > 0 {
		line += fmt.Sprintf("  %dy", s.Years)
	}
	if s.Note != "" {
		line += "  " + s.Note
	}
	fmt.Fprintln(w, line)
}

func runUpload(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	c, _, _, err := newClient(cmd)
	if err != nil {
		return err
	}

	r, err := c.UploadResume(cmd.Context(), uploadName, filepath.Base(args[0]), content, uploadActivate)
	if err != nil {
		return fmt.Errorf("failed to upload resume: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded resume %s (%s) with %d skills\n", r.Name, r.ID, len(r.Skills))
	return nil
}
