package cli

import (
	"slices"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/isamplesorg/isamples-go/client"
)

func (a *app) recordsCommand() *cobra.Command {
	var (
		q          queryFlags
		model      string
		destFolder string
	)
	cmd := &cobra.Command{
		Use:   "records SERVICE",
		Short: "Retrieve records from SERVICE",
		Long: `Retrieve records from SERVICE.

SERVICE is the name of an iSamples endpoint.

Output is to stdout unless DESTFOLDER is specified, in which case
individual JSON records are written to the folder with an additional
index.json file that contains the mapping between PID and file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(client.RecordFormats, model) {
				return errors.NotValidf("record model %q (use one of %v)", model, client.RecordFormats)
			}
			c, err := a.newClient(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			ids, err := c.IDs(cmd.Context(), q.query, "", q.numRecs, 0)
			if err != nil {
				return errors.Trace(err)
			}
			records, err := c.Records(cmd.Context(), ids, model)
			if err != nil {
				return errors.Trace(err)
			}
			if destFolder != "" {
				err = a.saveRecords(destFolder, records)
			} else {
				err = a.printRecords(records)
			}
			if err != nil {
				return err
			}
			logger.Infof("Retrieved %d records", len(records))
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringVarP(&model, "model", "m", "core", "record model: core, original, full, solr")
	cmd.Flags().StringVarP(&destFolder, "destfolder", "d", "", "folder for saving records")
	return cmd
}

func (a *app) printRecords(records []client.Record) (err error) {
	out := a.newOutput(2)
	defer func() {
		if ferr := out.Close(); err == nil {
			err = ferr
		}
	}()
	for _, rec := range records {
		if err := out.Encode(rec.Value); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) saveRecords(dir string, records []client.Record) (err error) {
	f, err := a.openFolder(dir, len(records), "Saving records")
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	for _, rec := range records {
		if err := f.save(rec.PID, rec.Value); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
