package cli

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/isamplesorg/isamples-go/client"
)

// queryFlags are the flags selecting records, shared by several commands.
type queryFlags struct {
	query   string
	numRecs int
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.query, "query", "q", client.DefaultQuery, "Solr query to filter records")
	cmd.Flags().IntVarP(&q.numRecs, "numrecs", "n", client.DefaultRows, "number of records to retrieve")
}

func (a *app) pidsCommand() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "pids SERVICE",
		Short: "List identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			ids, err := c.IDs(cmd.Context(), q.query, "", q.numRecs, 0)
			if err != nil {
				return errors.Trace(err)
			}
			for _, id := range ids {
				if _, err := fmt.Fprintln(a.stdout, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
	q.register(cmd)
	return cmd
}
