package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/postboy/postboy/pkg/collections"
	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/tui"
)

var collectionSearch string

func init() {
	collectionsCmd.Flags().StringVarP(&collectionSearch, "search", "s", "", "only show collections whose name contains this")
	collectionsCmd.AddCommand(createCollectionCmd)
	rootCmd.AddCommand(collectionsCmd)
}

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"cols"},
	Short:   "List collections and their requests",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newStoreClient()
		if err != nil {
			return err
		}
		tree, err := client.FetchTree(cmd.Context())
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), collections.Filter(tree, collectionSearch))
		return nil
	},
}

var createCollectionCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an empty collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newStoreClient()
		if err != nil {
			return err
		}
		col, err := client.CreateCollection(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created collection %q (id %d)\n", col.Name, col.ID)
		return nil
	},
}

func printTree(w io.Writer, tree []core.Collection) {
	if len(tree) == 0 {
		fmt.Fprintln(w, "No collections")
		return
	}
	for _, col := range tree {
		fmt.Fprintf(w, "%s %s\n", tui.MethodStyle.Render(fmt.Sprintf("[%d]", col.ID)), col.Name)
		if !col.Open {
			fmt.Fprintln(w, tui.MetaStyle.Render("  (requests unavailable)"))
			continue
		}
		if len(col.Requests) == 0 {
			fmt.Fprintln(w, tui.MetaStyle.Render("  (empty)"))
		}
		for _, r := range col.Requests {
			fmt.Fprintf(w, "  %-7s %s  %s\n", r.Method, r.Name, tui.MetaStyle.Render(r.ID))
		}
	}
}
