package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect run profiles",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileListCmd(a), newProfileSetCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Print a run profile",
		Long: `Show prints the named run profile of the configured kind, or the
selected profile when name is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeployer(func(s store.Store, _ *engine.Deployer) error {
				ctx := contextOf(cmd)

				var (
					profile *domain.RunProfile
					err     error
				)
				if len(args) == 0 {
					profile, err = s.SelectedProfile(ctx)
				} else {
					profile, err = s.FindProfile(ctx, domain.ProfileKey{
						KindID: a.cfg.EngineConfig().ProfileKey().KindID,
						Name:   args[0],
					})
				}
				if err != nil {
					return err
				}
				return writeOutput(a.stdout, format, profile, nil)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatYAML, "output format: yaml, json")
	return cmd
}

func newProfileListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDeployer(func(s store.Store, _ *engine.Deployer) error {
				profiles, err := s.ListProfiles(contextOf(cmd), store.DefaultListOptions())
				if err != nil {
					return err
				}
				if len(profiles) == 0 {
					fmt.Fprintln(a.stdout, "No run profiles")
					return nil
				}

				w := tabwriter.NewWriter(a.stdout, 0, 0, 3, ' ', 0)
				if _, err := fmt.Fprintln(w, "NAME\tPORT\tWEBAPPS"); err != nil {
					return fmt.Errorf("failed to write header: %w", err)
				}
				for _, p := range profiles {
					if _, err := fmt.Fprintf(w, "%s\t%d\t%d\n", p.Key.Name, p.Port, len(p.Webapps)); err != nil {
						return fmt.Errorf("failed to write row: %w", err)
					}
				}
				return w.Flush()
			})
		},
	}
}

func newProfileSetCmd(a *app) *cobra.Command {
	var (
		port, adminPort, sslPort string
		noSSL                    bool
	)

	cmd := &cobra.Command{
		Use:   "set [name]",
		Short: "Change the ports of a run profile",
		Long: `Set changes the HTTP, admin or SSL port of the named run profile, or of
the project's profile when name is omitted. Ports must be in 1-65535.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ps engine.PortSettings
			for _, f := range []struct {
				value string
				dst   **int
			}{
				{port, &ps.Port},
				{adminPort, &ps.AdminPort},
				{sslPort, &ps.SSLPort},
			} {
				if f.value == "" {
					continue
				}
				p, err := domain.ParsePort(f.value)
				if err != nil {
					return err
				}
				*f.dst = &p
			}
			ps.ClearSSL = noSSL

			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return a.withDeployer(func(_ store.Store, d *engine.Deployer) error {
				profile, err := d.UpdatePorts(contextOf(cmd), name, ps)
				if err != nil {
					return err
				}
				ssl := "none"
				if profile.SSLPort != nil {
					ssl = fmt.Sprint(*profile.SSLPort)
				}
				fmt.Fprintf(a.stdout, "%s: port %d, admin port %d, ssl port %s\n",
					profile.Key.Name, profile.Port, profile.AdminPort, ssl)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port")
	cmd.Flags().StringVar(&adminPort, "admin-port", "", "shutdown (admin) port")
	cmd.Flags().StringVar(&sslPort, "ssl-port", "", "SSL port")
	cmd.Flags().BoolVar(&noSSL, "no-ssl", false, "remove the SSL port")
	return cmd
}
