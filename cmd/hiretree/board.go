package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiretree/internal/client"
	"github.com/jonathan/hiretree/internal/kanban"
	"github.com/jonathan/hiretree/internal/observability"
	"github.com/jonathan/hiretree/internal/skills"
	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the job board",
	Long:  "Print the pipeline columns with each job's match score. --archived lists the archived jobs as well.",
	Args:  cobra.NoArgs,
	RunE:  runBoard,
}

var moveCmd = &cobra.Command{
	Use:   "move <job-id> [status]",
	Short: "Move a job to another status",
	Long:  "Move a job to another pipeline column or archive it. Without a status the available targets are listed.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMove,
}

var showCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var (
	showArchived bool
	showSummary  bool
)

func init() {
	boardCmd.Flags().BoolVar(&showArchived, "archived", false, "Also list archived jobs")
	boardCmd.Flags().BoolVar(&showSummary, "summary", false, "Only print the pipeline counts")

	rootCmd.AddCommand(boardCmd, moveCmd, showCmd)
}

func loadBoard(cmd *cobra.Command) (*kanban.Board, error) {
	c, _, logger, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	board := kanban.New(c, logger)
	if err := board.Load(cmd.Context()); err != nil {
		board.Close()
		return nil, err
	}
	return board, nil
}

func runBoard(cmd *cobra.Command, _ []string) error {
	board, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	defer board.Close()

	out := cmd.OutOrStdout()
	if showSummary {
		observability.NewPrinter(out).PrintPipeline(board.Jobs())
		return nil
	}
	counts := skills.PipelineCounts(board.Jobs())
	summary := make([]string, 0, len(status.All()))
	for _, st := range status.Columns() {
		summary = append(summary, fmt.Sprintf("%s %d", st, counts[st]))
	}
	fmt.Fprintf(out, "Pipeline: %s\n", strings.Join(summary, " · "))

	for _, col := range board.Columns() {
		fmt.Fprintf(out, "\n%s (%d)\n", strings.ToUpper(string(col.Status)), len(col.Jobs))
		for _, j := range col.Jobs {
			printJob(out, j)
		}
	}

	if showArchived {
		archived := board.Archived()
		fmt.Fprintf(out, "\nARCHIVED (%d)\n", len(archived))
		for _, j := range archived {
			printJob(out, j)
		}
	}
	return nil
}

func printJob(w io.Writer, j types.Job) {
	title := j.Title
	if title == "" {
		title = "Untitled"
	}
	if j.Company != "" {
		title += " · " + j.Company
	}
	m := skills.Describe(j)
	line := fmt.Sprintf("  #%-4d %s  [%s]", j.ID, title, m.Label())
	if j.Status.IsArchived() {
		line += " " + string(j.Status)
	}
	if m.Score != nil && len(m.Missing) > 0 {
		line += " missing: " + strings.Join(m.Missing, ", ")
	}
	fmt.Fprintln(w, line)
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	c, _, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	job, err := c.GetJob(cmd.Context(), id)
	if client.IsNotFound(err) {
		return fmt.Errorf("job #%d not found", id)
	}
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintJob(&job)
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	var target status.Status
	if len(args) == 2 {
		if target, err = status.Parse(args[1]); err != nil {
			return err
		}
	}

	board, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	defer board.Close()
	out := cmd.OutOrStdout()

	if target == "" {
		menu, err := board.Menu(id)
		if err != nil {
			return err
		}
		printTargets(out, "Move to", menu.MoveTo)
		printTargets(out, "Restore to", menu.Restore)
		printTargets(out, "Archive as", menu.Archive)
		return nil
	}

	if err := board.Move(cmd.Context(), id, target); err != nil {
		return fmt.Errorf("failed to move job #%d: %w", id, err)
	}
	j, err := board.Job(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Job #%d is now %s\n", j.ID, j.Status)
	return nil
}

func printTargets(w io.Writer, label string, targets []status.Status) {
	if len(targets) == 0 {
		return
	}
	names := make([]string, len(targets))
	for i, st := range targets {
		names[i] = string(st)
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(names, ", "))
}
