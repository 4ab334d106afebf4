package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldcart/backoffice/internal/client/admin"
)

func newUsersCommand() *cobra.Command {
	var opts admin.ListOptions

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List back-office users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			page, err := admin.NewClient(a.client).ListUsers(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tMODULES")
			for _, u := range page.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, strings.Join(u.Modules, ","))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	addPageFlags(cmd, &opts)
	return cmd
}

func newCategoriesCommand() *cobra.Command {
	var opts admin.ListOptions

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			page, err := admin.NewClient(a.client).ListCategories(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tACTIVE")
			for _, c := range page.Items {
				fmt.Fprintf(w, "%s\t%s\t%t\n", c.ID, c.Name, c.Active)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	addPageFlags(cmd, &opts)
	return cmd
}

func addPageFlags(cmd *cobra.Command, opts *admin.ListOptions) {
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "rows per page")
}
