package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/internal/store"
)

var (
	resultsLimit int
	resultsSkip  int
	resultsURL   string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query stored analysis results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list <stage>",
	Short: "List stored records for one stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, ok := model.ParseStage(args[0])
		if !ok {
			return eris.Errorf("unknown stage: %s", args[0])
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListRecords(cmd.Context(), store.RecordFilter{
			Stage:  stage,
			URL:    resultsURL,
			Limit:  resultsLimit,
			Offset: resultsSkip,
		})
		if err != nil {
			return eris.Wrap(err, "list records")
		}
		return printJSON(records)
	},
}

var resultsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the newest record per stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		latest, err := st.LatestByStage(cmd.Context(), resultsURL)
		if err != nil {
			return eris.Wrap(err, "latest by stage")
		}
		return printJSON(latest)
	},
}

var resultsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one record by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		record, err := st.GetRecord(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "get record")
		}
		if record == nil {
			return eris.Errorf("record not found: %s", args[0])
		}
		return printJSON(record)
	},
}

var resultsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts per stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.StageStats(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "stage stats")
		}
		return printJSON(stats)
	},
}

func init() {
	resultsListCmd.Flags().IntVar(&resultsLimit, "limit", 10, "maximum records to return")
	resultsListCmd.Flags().IntVar(&resultsSkip, "skip", 0, "records to skip")
	resultsListCmd.Flags().StringVar(&resultsURL, "url", "", "filter by URL")
	resultsLatestCmd.Flags().StringVar(&resultsURL, "url", "", "filter by URL")

	resultsCmd.AddCommand(resultsListCmd, resultsLatestCmd, resultsGetCmd, resultsStatsCmd)
	rootCmd.AddCommand(resultsCmd)
}
