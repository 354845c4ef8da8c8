package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/hass-ajax/internal/pkg/ajaxapi"
)

var _snapshotCmdOpts struct {
	apiKey        string
	integrationID string
	apiTimeout    time.Duration
	bypassCache   bool
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch the full account state and print it as JSON",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doSnapshot(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("ajax.api-key", "ajax.integration-id")
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&_snapshotCmdOpts.apiKey, "ajax-api-key", "", "Ajax enterprise API key")
	snapshotCmd.Flags().StringVar(&_snapshotCmdOpts.integrationID, "ajax-integration-id", "", "Ajax enterprise integration ID")
	snapshotCmd.Flags().DurationVar(&_snapshotCmdOpts.apiTimeout, "ajaxapi-timeout", time.Second*60, "maximum duration of the snapshot fetch, eg. 1m or 10s")
	snapshotCmd.Flags().BoolVar(&_snapshotCmdOpts.bypassCache, "bypass-cache", false, "skip the vendor's server-side cache")

	errPanic(viper.GetViper().BindPFlag("ajax.api-key", snapshotCmd.Flags().Lookup("ajax-api-key")))
	errPanic(viper.GetViper().BindPFlag("ajax.integration-id", snapshotCmd.Flags().Lookup("ajax-integration-id")))
	errPanic(viper.GetViper().BindPFlag("ajax.api-timeout", snapshotCmd.Flags().Lookup("ajaxapi-timeout")))
	errPanic(viper.GetViper().BindPFlag("ajax.bypass-cache", snapshotCmd.Flags().Lookup("bypass-cache")))

	rootCmd.AddCommand(snapshotCmd)
}

func doSnapshot() error {
	api := ajaxapi.NewLiveClient(
		viper.GetString("ajax.integration-id"),
		viper.GetString("ajax.api-key"),
	).WithTimeout(viper.GetDuration("ajax.api-timeout"))
	defer api.Close()

	if viper.GetBool("ajax.bypass-cache") {
		api = api.WithCacheBypass()
	}

	account, err := api.AccountSnapshot(context.Background())
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(account, "", "    ")
	if err != nil {
		return err
	}

	fmt.Println(string(b))
	return nil
}
