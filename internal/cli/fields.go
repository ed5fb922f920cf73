package cli

import (
	"fmt"
	"slices"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func (a *app) fieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields SERVICE",
		Short: "List fields of the Solr search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			info, err := c.SelectInfo(cmd.Context())
			if err != nil {
				return errors.Trace(err)
			}
			schema, _ := info["schema"].(map[string]any)
			fields, ok := schema["fields"].(map[string]any)
			if !ok {
				return errors.NotValidf("index description without schema fields")
			}
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				field, _ := fields[name].(map[string]any)
				fmt.Fprintf(a.stdout, "%s (%v) %v\n", name, field["type"], field["flags"])
			}
			return nil
		},
	}
}
