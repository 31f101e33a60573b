package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

func newServerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage registered Tomcat installations",
	}
	cmd.AddCommand(newServerAddCmd(a), newServerListCmd(a))
	return cmd
}

func newServerAddCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <home>",
		Short: "Register a Tomcat installation",
		Long: `Add records the Tomcat installation at home and publishes the jars of
its lib directory as a global library. The name defaults to the
directory name of home.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := absPath(args)
			if err != nil {
				return err
			}
			return a.withDeployer(func(_ store.Store, d *engine.Deployer) error {
				ctx := contextOf(cmd)
				info, err := d.RegisterServer(ctx, name, home)
				if errors.Is(err, domain.ErrDuplicateName) {
					preferred := name
					if preferred == "" {
						preferred = filepath.Base(home)
					}
					if suggestion, sErr := d.SuggestServerName(ctx, preferred); sErr == nil {
						return fmt.Errorf("%w (try --name %q)", err, suggestion)
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Registered server %s at %s\n", info.Name, info.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "server name (default: directory name)")
	return cmd
}

func newServerListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered Tomcat installations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDeployer(func(s store.Store, _ *engine.Deployer) error {
				servers, err := s.ListServers(contextOf(cmd))
				if err != nil {
					return err
				}
				if len(servers) == 0 {
					fmt.Fprintln(a.stdout, "No servers registered")
					return nil
				}

				w := tabwriter.NewWriter(a.stdout, 0, 0, 3, ' ', 0)
				if _, err := fmt.Fprintln(w, "NAME\tPATH"); err != nil {
					return fmt.Errorf("failed to write header: %w", err)
				}
				for _, srv := range servers {
					if _, err := fmt.Fprintf(w, "%s\t%s\n", srv.Name, srv.Path); err != nil {
						return fmt.Errorf("failed to write row: %w", err)
					}
				}
				return w.Flush()
			})
		},
	}
}
