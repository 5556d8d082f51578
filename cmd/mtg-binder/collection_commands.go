package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
	"github.com/ramonehamilton/mtg-binder/internal/cards/imagecache"
	"github.com/ramonehamilton/mtg-binder/internal/collection"
	"github.com/ramonehamilton/mtg-binder/internal/session"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <identifier>...",
		Short: "Add one copy of each card, e.g. M19156 or WAR056a",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := sessionOptions{save: true, catalog: true}
			return ctx.withSession(cmd.Context(), opts, func(s *session.Session) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					e, err := s.Add(cmd.Context(), arg)

					var ambiguous *collection.AmbiguousResultError
					if errors.As(err, &ambiguous) {
						rec, pickErr := pickCandidate(cmd, ambiguous)
						if pickErr != nil {
							return pickErr
						}
						e, err = s.Choose(cmd.Context(), rec)
					}
					if err != nil {
						return fmt.Errorf("add %s: %w", arg, err)
					}

					label, err := s.Registry().Label(cmd.Context(), e)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Added %s [%s]\n", label, e.Identity())
				}
				return nil
			})
		},
	}
}

// pickCandidate asks the user to choose between ambiguous remote matches.
func pickCandidate(cmd *cobra.Command, ambiguous *collection.AmbiguousResultError) (cards.Record, error) {
	if !isTerminal(cmd.InOrStdin()) {
		return cards.Record{}, ambiguous
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s matches %d cards:\n", ambiguous.Identity, len(ambiguous.Candidates))
	for i, c := range ambiguous.Candidates {
		fmt.Fprintf(out, "  %d) %s (%s, %s)\n", i+1, c.Name, c.Type, c.Rarity)
	}
	fmt.Fprint(out, "Choose a card: ")

	answer, err := readLine(cmd.InOrStdin())
	if err != nil {
		return cards.Record{}, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(ambiguous.Candidates) {
		return cards.Record{}, fmt.Errorf("invalid choice %q", answer)
	}
	return ambiguous.Candidates[n-1], nil
}

func newIncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inc <identifier>",
		Short: "Add a copy of an owned card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), sessionOptions{save: true}, func(s *session.Session) error {
				row, err := rowOf(s, args[0])
				if err != nil {
					return err
				}
				_, err = s.Increment(cmd.Context(), row, printRow(cmd.OutOrStdout()))
				return err
			})
		},
	}
}

func newDecCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "dec <identifier>",
		Short: "Remove a copy of an owned card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), sessionOptions{save: true}, func(s *session.Session) error {
				row, err := rowOf(s, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				confirm := func(e *collection.Entry) bool {
					if yes {
						return true
					}
					if !isTerminal(cmd.InOrStdin()) {
						return false
					}
					label, err := s.Registry().Label(cmd.Context(), e)
					if err != nil {
						label = e.Identity().String()
					}
					fmt.Fprintf(out, "Remove the last copy of %s? [y/N] ", label)
					answer, err := readLine(cmd.InOrStdin())
					if err != nil {
						return false
					}
					answer = strings.ToLower(answer)
					return answer == "y" || answer == "yes"
				}

				outcome, err := s.Decrement(cmd.Context(), row, confirm, printRow(out))
				if err != nil {
					return err
				}
				switch outcome {
				case collection.Removed:
					fmt.Fprintf(out, "Removed %s\n", strings.ToUpper(args[0]))
				case collection.Unchanged:
					fmt.Fprintln(out, "Kept the last copy (use --yes to remove it)")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Remove the last copy without asking")
	return cmd
}

func printRow(out io.Writer) collection.RowRenderer {
	return func(_ int, label string) {
		fmt.Fprintln(out, label)
	}
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var sortKey string
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), sessionOptions{}, func(s *session.Session) error {
				if sortKey != "" {
					key, err := collection.ParseSortKey(sortKey)
					if err != nil {
						return err
					}
					if err := s.SetSortKey(cmd.Context(), key); err != nil {
						return err
					}
				}
				if err := s.SetFilter(cmd.Context(), filter); err != nil {
					return err
				}

				rows, err := s.Rows(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					if s.Registry().Len() == 0 {
						fmt.Fprintln(out, "Collection is empty")
					} else {
						fmt.Fprintln(out, "No cards match the filter")
					}
					return nil
				}

				table := make([][]string, 0, len(rows))
				copies := 0
				for _, r := range rows {
					rec := r.Entry.Record
					copies += r.Entry.Amount
					table = append(table, []string{
						strconv.Itoa(r.Index + 1),
						r.Label,
						rec.Identity.String(),
						rec.Type,
						rec.Rarity,
						strconv.Itoa(r.Entry.Amount),
					})
				}
				fmt.Fprintln(out, renderTable(cardColumns, table,
					"", fmt.Sprintf("%d cards, %d copies", len(rows), copies)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sortKey, "sort", "s", "", "Sort key: name, mana_cost, type or rarity")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only show cards whose text contains this (case sensitive)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <identifier>",
		Short: "Save the artwork of an owned card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), sessionOptions{images: true}, func(s *session.Session) error {
				row, err := rowOf(s, args[0])
				if err != nil {
					return err
				}

				img, err := s.Select(cmd.Context(), row)
				var archiveErr *imagecache.ArchiveWriteError
				if errors.As(err, &archiveErr) && img != nil {
					ctx.logger.Warn("artwork not archived", "key", archiveErr.Key, "error", archiveErr.Err)
				} else if err != nil {
					return err
				}

				path := output
				if path == "" {
					path = fmt.Sprintf("%s.%s", strings.ToUpper(args[0]), img.Format)
				}
				if err := os.WriteFile(path, img.Data, 0o644); err != nil {
					return fmt.Errorf("write artwork: %w", err)
				}

				bounds := img.Bitmap.Bounds()
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d %s)\n", path, bounds.Dx(), bounds.Dy(), img.Format)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <identifier>.<format>)")
	return cmd
}
