package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmytro-yemelianov/accadmin/internal/bulk"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Browse account projects",
	}

	cmd.AddCommand(newProjectsListCmd())
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var filterExpr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, optionally filtered",
		Long: `Lists account projects. The same filter expressions the bulk commands
accept work here, which makes this the natural dry check before a bulk run:

  accadmin projects list --filter "name:Tower*,status:active"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			filter, err := bulk.ParseFilter(filterExpr)
			if err != nil {
				return err
			}

			client, err := buildClient(cfg)
			if err != nil {
				return err
			}

			projects, err := client.ListAllProjects(cmd.Context())
			if err != nil {
				return err
			}

			matched := 0
			fmt.Printf("%-36s  %-40s  %-10s  %-8s  %s\n", "ID", "NAME", "STATUS", "PLATFORM", "CREATED")
			for _, p := range projects {
				if !filter.Matches(p) {
					continue
				}
				matched++
				created := ""
				if p.CreatedAt != nil {
					created = p.CreatedAt.Format("2006-01-02")
				}
				fmt.Printf("%-36s  %-40s  %-10s  %-8s  %s\n",
					p.ID, truncate(p.Name, 40), p.Status, p.Platform, created)
			}

			fmt.Println()
			fmt.Printf("%d of %d projects matched\n", matched, len(projects))
			return nil
		},
	}

	cmd.Flags().StringVar(&filterExpr, "filter", "", "Project filter expression (key:value pairs)")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
