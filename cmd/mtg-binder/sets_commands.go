package main

import (
	"fmt"
	"strconv"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-binder/internal/storage"
)

func newSetsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Manage the local set catalog",
	}

	cmd.AddCommand(newSetsSyncCommand(ctx))
	cmd.AddCommand(newSetsListCommand(ctx))
	cmd.AddCommand(newSetsFindCommand(ctx))
	return cmd
}

func newSetsSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Download the set list from the card database",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.remote()
			if err != nil {
				return err
			}
			remoteSets, err := client.Sets(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch sets: %w", err)
			}

			sets := make([]storage.Set, 0, len(remoteSets))
			for _, s := range remoteSets {
				sets = append(sets, storage.Set{
					Code:        s.Code,
					Name:        s.Name,
					Type:        s.Type,
					ReleaseDate: s.ReleaseDate,
				})
			}

			return ctx.withCatalog(func(repo *storage.SetRepository) error {
				if err := repo.Replace(cmd.Context(), sets); err != nil {
					return err
				}
				ctx.logger.Debug("set catalog replaced", "sets", len(sets))
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d sets\n", len(sets))
				return nil
			})
		},
	}
}

func newSetsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cataloged sets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(repo *storage.SetRepository) error {
				sets, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sets) == 0 {
					fmt.Fprintln(out, "Set catalog is empty; run `mtg-binder sets sync`")
					return nil
				}
				fmt.Fprintln(out, renderSets(sets))
				return nil
			})
		},
	}
}

// setNames adapts a set list to fuzzy.Source, matching on "CODE name".
type setNames []storage.Set

func (s setNames) String(i int) string { return s[i].Code + " " + s[i].Name }
func (s setNames) Len() int            { return len(s) }

func newSetsFindCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "find <text>",
		Short: "Find sets by approximate code or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(repo *storage.SetRepository) error {
				sets, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}

				matches := fuzzy.FindFrom(args[0], setNames(sets))
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintf(out, "No sets match %q\n", args[0])
					return nil
				}
				if limit > 0 && len(matches) > limit {
					matches = matches[:limit]
				}

				found := make([]storage.Set, 0, len(matches))
				for _, m := range matches {
					found = append(found, sets[m.Index])
				}
				fmt.Fprintln(out, renderSets(found))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of matches (0 for all)")
	return cmd
}

func renderSets(sets []storage.Set) string {
	rows := make([][]string, 0, len(sets))
	for _, s := range sets {
		rows = append(rows, []string{s.Code, s.Name, s.Type, s.ReleaseDate})
	}
	return renderTable(setColumns, rows, "", strconv.Itoa(len(sets))+" sets")
}
