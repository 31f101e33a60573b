package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/thawee/SmartTomcat/internal/core/layout"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

func newLinkCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "link [dir]",
		Short: "Deploy a project directory as a webapp",
		Long: `Link infers the layout of a project directory, creates a workspace item
for it when none exists yet, and registers its web root in the project's
run profile. The current directory is used when dir is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absPath(args)
			if err != nil {
				return err
			}
			return a.withDeployer(func(_ store.Store, d *engine.Deployer) error {
				res, err := d.LinkDirectory(contextOf(cmd), dir)
				if err != nil {
					return err
				}
				return writeOutput(a.stdout, format, res, linkSummary(res))
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, yaml, json")
	return cmd
}

func newRelinkCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "relink <web.xml>",
		Short: "Redeploy the project owning a web.xml descriptor",
		Long: `Relink locates the project that owns a WEB-INF/web.xml descriptor and
deploys it. An existing workspace item is reconfigured from the current
tree, replacing its managed libraries.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args)
			if err != nil {
				return err
			}
			return a.withDeployer(func(_ store.Store, d *engine.Deployer) error {
				res, err := d.LinkDescriptor(contextOf(cmd), path)
				if err != nil {
					return err
				}
				return writeOutput(a.stdout, format, res, linkSummary(res))
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, yaml, json")
	return cmd
}

func newUnlinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <item>",
		Short: "Remove a webapp from the project's run profile",
		Long: `Unlink drops the deployment record of a workspace item from the
project's run profile. The workspace item and its configuration are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeployer(func(_ store.Store, d *engine.Deployer) error {
				profile, err := d.Unlink(contextOf(cmd), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Unlinked %s from %s (%d webapps left)\n", args[0], profile.Key.Name, len(profile.Webapps))
				return nil
			})
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve [dir]",
		Short: "Print the inferred layout of a project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir, err := absPath(args)
			if err != nil {
				return err
			}
			desc, err := layout.NewResolver(a.fs, a.logger).Resolve(dir)
			if err != nil {
				return err
			}
			return writeOutput(a.stdout, format, desc, nil)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatYAML, "output format: yaml, json")
	return cmd
}

func linkSummary(res *engine.Result) func(io.Writer) error {
	return func(w io.Writer) error {
		itemState := "existing"
		if res.ItemCreated {
			itemState = "created"
		}
		profileState := "existing"
		if res.ProfileCreated {
			profileState = "created"
		}

		fmt.Fprintf(w, "Deployed %s at %s\n", res.Record.WorkspaceItem, res.Record.ContextPath)
		fmt.Fprintf(w, "  item:     %s (%s)\n", res.Item.Name, itemState)
		fmt.Fprintf(w, "  doc base: %s\n", res.Record.DocBase)
		fmt.Fprintf(w, "  profile:  %s (%s)\n", res.Profile.Key.Name, profileState)
		_, err := fmt.Fprintf(w, "  webapps:  %d\n", len(res.Profile.Webapps))
		return err
	}
}
