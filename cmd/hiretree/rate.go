package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiretree/internal/profile"
	"github.com/jonathan/hiretree/internal/types"
)

var rateCmd = &cobra.Command{
	Use:   "rate <skill> [stars]",
	Short: "Rate a skill or attach a note",
	Long:  "Set your rating (1-5) of a skill on the active resume, or the one given with --resume. Giving the current rating again clears it.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  withResumeList(runRate),
}

var (
	rateResumeID string
	rateNote     string
)

func init() {
	rateCmd.Flags().StringVar(&rateResumeID, "resume", "", "Resume id (default: the active resume)")
	rateCmd.Flags().StringVar(&rateNote, "note", "", "Note to attach to the skill")

	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, session *resumeSession, args []string) error {
	noteSet := cmd.Flags().Changed("note")
	if len(args) == 1 && !noteSet {
		return errors.New("give a rating, --note or both")
	}

	resume, err := pickResume(session.list, rateResumeID)
	if err != nil {
		return err
	}

	editor := profile.NewSkillEditor(session.client, resume, session.logger)
	defer editor.Close()
	ctx := cmd.Context()
	name := args[0]

	if len(args) == 2 {
		stars, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid rating %q", args[1])
		}
		if err := editor.Rate(ctx, name, stars); err != nil {
			return err
		}
	}
	if noteSet {
		if err := editor.SetNote(ctx, name, rateNote); err != nil {
			return err
		}
	}

	s, err := editor.Skill(name)
	if err != nil {
		return err
	}
	printSkill(cmd.OutOrStdout(), s)
	return nil
}

func pickResume(list *profile.ResumeList, id string) (types.Resume, error) {
	if id == "" {
		active, ok := list.Active()
		if !ok {
			return types.Resume{}, errors.New("no active resume; pass --resume or activate one first")
		}
		return active, nil
	}
	for _, r := range list.Resumes() {
		if r.ID == id {
			return r, nil
		}
	}
	return types.Resume{}, fmt.Errorf("resume %s not found", id)
}
