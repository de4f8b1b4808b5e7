package main

import (
	"context"
	"fmt"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/postboy/postboy/pkg/collections"
	"github.com/postboy/postboy/pkg/compose"
	"github.com/postboy/postboy/pkg/core"
)

var (
	saveReq        requestFlags
	saveName       string
	saveCollection int64

	updateReq  requestFlags
	updateName string
	updateYes  bool

	deleteYes bool

	runReq  requestFlags
	runView viewFlags
)

func init() {
	saveReq.bind(saveRequestCmd)
	saveRequestCmd.Flags().StringVarP(&saveName, "name", "n", "", "request name (prompted when empty)")
	saveRequestCmd.Flags().Int64VarP(&saveCollection, "collection", "c", 0, "collection id (prompted when 0)")

	updateReq.bind(updateRequestCmd)
	updateRequestCmd.Flags().StringVarP(&updateName, "name", "n", "", "rename the request")
	updateRequestCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "skip the confirmation")

	deleteRequestCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation")

	runReq.bind(runRequestCmd)
	runView.bind(runRequestCmd)

	requestsCmd.AddCommand(saveRequestCmd, updateRequestCmd, deleteRequestCmd, runRequestCmd)
	rootCmd.AddCommand(requestsCmd)
}

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "Save, update, delete and run stored requests",
}

var saveRequestCmd = &cobra.Command{
	Use:   "save [METHOD] URL",
	Short: "Save a new request to a collection",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newStoreClient()
		if err != nil {
			return err
		}

		c := compose.NewComposer()
		method, url := methodAndURL(args)
		if err := saveReq.apply(ctx, c, method, url); err != nil {
			return err
		}

		name, collectionID := saveName, saveCollection
		if name == "" || collectionID == 0 {
			if name, collectionID, err = promptSaveTarget(ctx, client, name, collectionID); err != nil {
				return err
			}
		}

		saved, err := client.SaveRequest(ctx, c.Snapshot(name, collectionID))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s in collection %d\n", saved.Name, saved.ID, saved.CollectionID)
		return nil
	},
}

// promptSaveTarget asks for a name and a collection. The first collection is
// preselected.
func promptSaveTarget(ctx context.Context, client *collections.Client, name string, collectionID int64) (string, int64, error) {
	cols, err := client.ListCollections(ctx)
	if err != nil {
		return "", 0, err
	}
	if len(cols) == 0 {
		return "", 0, fmt.Errorf("no collections yet: create one with `postboy collections create NAME`")
	}
	if collectionID == 0 {
		collectionID = cols[0].ID
	}

	options := make([]huh.Option[int64], len(cols))
	for i, col := range cols {
		options[i] = huh.NewOption(col.Name, col.ID)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Request name").
				Value(&name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[int64]().
				Title("Collection").
				Options(options...).
				Value(&collectionID),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", 0, err
	}
	return name, collectionID, nil
}

var updateRequestCmd = &cobra.Command{
	Use:   "update ID [[METHOD] URL]",
	Short: "Update a stored request, showing a diff first",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newStoreClient()
		if err != nil {
			return err
		}
		stored, err := client.LoadRequest(ctx, args[0])
		if err != nil {
			return err
		}

		c := compose.NewComposer()
		c.Load(*stored)
		method, url := methodAndURL(args[1:])
		if err := updateReq.apply(ctx, c, method, url); err != nil {
			return err
		}

		name := stored.Name
		if updateName != "" {
			name = updateName
		}
		next := c.Snapshot(name, stored.CollectionID)
		next.ID = stored.ID

		diff, err := requestDiff(*stored, next)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), diff)

		if !updateYes {
			ok, err := confirm(ctx, "Apply this update?")
			if err != nil || !ok {
				return err
			}
		}

		updated, err := client.UpdateRequest(ctx, next)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", updated.Name)
		return nil
	},
}

// requestDiff is a unified diff of the YAML form of two requests.
func requestDiff(before, after core.SavedRequest) (string, error) {
	a, err := yaml.Marshal(diffable(before))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	b, err := yaml.Marshal(diffable(after))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	if string(a) == string(b) {
		return "", nil
	}
	edits := udiff.Strings(string(a), string(b))
	return udiff.ToUnified("stored/"+before.ID, "updated/"+after.ID, string(a), edits, 3)
}

// diffable drops pair ids, which change on every round trip.
func diffable(r core.SavedRequest) core.SavedRequest {
	strip := func(pairs []core.KeyValuePair) []core.KeyValuePair {
		out := make([]core.KeyValuePair, len(pairs))
		for i, p := range pairs {
			p.ID = ""
			out[i] = p
		}
		return out
	}
	r.QueryParams = strip(r.QueryParams)
	r.Headers = strip(r.Headers)
	if r.Body != nil {
		body := *r.Body
		body.Form = strip(body.Form)
		if body.Type == "" {
			body.Type = core.BodyNone
		}
		r.Body = &body
	}
	return r
}

var deleteRequestCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a stored request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newStoreClient()
		if err != nil {
			return err
		}
		if !deleteYes {
			ok, err := confirm(ctx, "Delete request "+args[0]+"?")
			if err != nil || !ok {
				return err
			}
		}
		if err := client.DeleteRequest(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
		return nil
	},
}

var runRequestCmd = &cobra.Command{
	Use:   "run ID",
	Short: "Load a stored request and send it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newStoreClient()
		if err != nil {
			return err
		}
		exec, err := newExecutor()
		if err != nil {
			return err
		}
		stored, err := client.LoadRequest(ctx, args[0])
		if err != nil {
			return err
		}

		c := compose.NewComposer()
		c.Load(*stored)
		if err := runReq.apply(ctx, c, "", ""); err != nil {
			return err
		}
		logger.Debug().Str("id", stored.ID).Str("name", stored.Name).Msg("running stored request")
		return sendAndShow(ctx, cmd.OutOrStdout(), c, exec, runView)
	},
}

func confirm(ctx context.Context, title string) (bool, error) {
	ok := false
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).RunWithContext(ctx)
	return ok, err
}
