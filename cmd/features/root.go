package features

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mongomock/mongomock/cmd/util"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (

	// FeaturesCmd represents the features command group
	FeaturesCmd = &cobra.Command{
		Use:   "features",
		Short: "List the operator catalog and its implementation statuses",
		Long: `List every operator the mock recognizes, grouped by category
(query, update, stage, expression, accumulator), together with its
implementation status. Unsupported operators are rejected at runtime
instead of being approximated.`,
		RunE: runFeatures,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Flags
	key := "category"
	FeaturesCmd.Flags().String(key, "", util.WrapString("only show one category (query, update, stage, expression, accumulator)"))
	key = "status"
	FeaturesCmd.Flags().String(key, "", util.WrapString("only show one status (supported, partial, unsupported)"))
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	wantCategory := viper.GetString("category")
	wantStatus := viper.GetString("status")

	cat := catalog.Default()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer w.Flush()

	shown := 0
	for _, category := range catalog.Categories() {
		if wantCategory != "" && wantCategory != string(category) {
			continue
		}
		for _, entry := range cat.Entries(category) {
			if wantStatus != "" && wantStatus != entry.Status.String() {
				continue
			}
			note := entry.Note
			if note == "" {
				note = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Category, entry.Name, entry.Status, note)
			shown++
		}
	}
	if shown == 0 {
		return fmt.Errorf("no catalog entries match category=%q status=%q", wantCategory, wantStatus)
	}
	return nil
}
