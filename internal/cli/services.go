package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) servicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the available service endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, svc := range a.cfg.Services {
				fmt.Fprintln(a.stdout, strings.Join(svc.Names, ", "))
				fmt.Fprintf(a.stdout, "  %s\n", svc.URL)
			}
			return nil
		},
	}
}
