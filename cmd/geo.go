package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	geoSubmission int64
	geoGeoJSON    bool
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Resolve a submission's land parcel to coordinates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if geoSubmission <= 0 {
			return eris.New("--submission is required")
		}
		ctx := cmd.Context()

		env, err := initEnv(ctx, "geo")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Geo.Resolve(ctx, geoSubmission)
		if err != nil {
			return eris.Wrapf(err, "geo submission %d", geoSubmission)
		}

		if geoGeoJSON {
			feature, err := res.Feature()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), feature)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "survey_no=%s latitude=%.6f longitude=%.6f\n",
			res.SurveyNo, res.Latitude, res.Longitude)
		return err
	},
}

func init() {
	geoCmd.Flags().Int64Var(&geoSubmission, "submission", 0, "submission id (required)")
	geoCmd.Flags().BoolVar(&geoGeoJSON, "geojson", false, "print a GeoJSON feature")
	rootCmd.AddCommand(geoCmd)
}
