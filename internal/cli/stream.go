package cli

import (
	"fmt"
	"iter"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/isamplesorg/isamples-go/client"
)

func (a *app) streamCommand() *cobra.Command {
	var (
		q          queryFlags
		fields     string
		random     bool
		xyCount    bool
		destFolder string
	)
	cmd := &cobra.Command{
		Use:   "stream SERVICE",
		Short: "Stream a potentially larger number of records",
		Long: `Stream a potentially larger number of records.

Records are printed one per line as they arrive, or saved to DESTFOLDER
like the records command does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			p := client.StreamParams{
				Query:   q.query,
				Rows:    q.numRecs,
				Random:  random,
				XYCount: xyCount,
			}
			if fields != "" {
				p.Fields = strings.Split(fields, ",")
			}
			sink, err := a.newRecordSink(destFolder, q.numRecs)
			if err != nil {
				return errors.Trace(err)
			}
			count, err := streamTo(sink, c.Stream(cmd.Context(), p))
			logger.Infof("Retrieved %d records", count)
			return err
		},
	}
	q.register(cmd)
	cmd.Flags().StringVarP(&fields, "fields", "f", "", "comma separated fields to return")
	cmd.Flags().BoolVarP(&random, "random_sel", "r", false, "random selection of records")
	cmd.Flags().BoolVar(&xyCount, "xycount", false, "aggregate by longitude, latitude and return count")
	cmd.Flags().StringVarP(&destFolder, "destfolder", "d", "", "folder for saving records")
	return cmd
}

// streamTo passes the records of seq to sink and closes it.  It returns the
// number of records sink accepted.
func streamTo(sink *recordSink, seq iter.Seq2[any, error]) (count int, err error) {
	defer func() {
		cerr := sink.close()
		if cerr == nil {
			return
		}
		cerr = errors.Annotate(cerr, "closing output")
		if err == nil {
			err = cerr
		} else {
			logger.Errorf("%v", cerr)
		}
	}()
	for rec, err := range seq {
		if err != nil {
			return count, err
		}
		if err := sink.put(count+1, rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// recordSink receives streamed records as they arrive.
type recordSink struct {
	put   func(n int, rec any) error
	close func() error
}

func (a *app) newRecordSink(destFolder string, total int) (*recordSink, error) {
	if destFolder == "" {
		out := a.newOutput(-1)
		return &recordSink{
			put:   func(_ int, rec any) error { return out.Encode(rec) },
			close: out.Close,
		}, nil
	}
	f, err := a.openFolder(destFolder, total, "Streaming records")
	if err != nil {
		return nil, err
	}
	return &recordSink{
		put: func(n int, rec any) error {
			return f.save(recordID(n, rec), rec)
		},
		close: f.Close,
	}, nil
}

// recordID returns the identifier of a streamed record, or a name made from
// its position if it has none.
func recordID(n int, rec any) string {
	if m, ok := rec.(map[string]any); ok {
		if id, ok := m["id"].(string); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("record-%d", n)
}
