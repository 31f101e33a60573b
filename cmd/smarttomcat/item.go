package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Inspect workspace items",
	}
	cmd.AddCommand(newItemListCmd(a))
	return cmd
}

func newItemListCmd(a *app) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDeployer(func(s store.Store, _ *engine.Deployer) error {
				items, err := s.ListWorkspaceItems(contextOf(cmd), store.ListOptions{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(a.stdout, "No workspace items")
					return nil
				}

				w := tabwriter.NewWriter(a.stdout, 0, 0, 3, ' ', 0)
				if _, err := fmt.Fprintln(w, "NAME\tCONTENT ROOT\tLIBRARIES"); err != nil {
					return fmt.Errorf("failed to write header: %w", err)
				}
				for _, it := range items {
					if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", it.Name, it.ContentRoot, len(it.Libraries)); err != nil {
						return fmt.Errorf("failed to write row: %w", err)
					}
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of items")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of items to skip")
	return cmd
}
