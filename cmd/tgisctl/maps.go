package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	mapsCmd := &cobra.Command{Use: "maps", Short: "Map record operations"}

	// create
	var kind, temporalType, start, end, timezone string
	var startOffset, endOffset int64
	createCmd := &cobra.Command{
		Use:   "create MAP_ID",
		Short: "Create a time-stamped map record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"id":           args[0],
				"kind":         kind,
				"temporalType": temporalType,
			}
			if start != "" {
				payload["startTime"] = start
			}
			if end != "" {
				payload["endTime"] = end
			}
			if cmd.Flags().Changed("start-offset") {
				payload["startOffset"] = startOffset
			}
			if cmd.Flags().Changed("end-offset") {
				payload["endOffset"] = endOffset
			}
			if timezone != "" {
				payload["timeZone"] = timezone
			}
			data, err := checkResp(newClient().R().
				SetBody(payload).
				Post(fmt.Sprintf("/api/mapsets/%s/maps", mapsetFlag)))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&kind, "kind", "k", "raster", "Map kind (raster, raster3d, vector)")
	createCmd.Flags().StringVarP(&temporalType, "temporal-type", "t", "absolute", "Temporal type (absolute, relative)")
	createCmd.Flags().StringVar(&start, "start", "", "Start time (RFC 3339)")
	createCmd.Flags().StringVar(&end, "end", "", "End time (RFC 3339)")
	createCmd.Flags().Int64Var(&startOffset, "start-offset", 0, "Start offset (relative mode)")
	createCmd.Flags().Int64Var(&endOffset, "end-offset", 0, "End offset (relative mode)")
	createCmd.Flags().StringVar(&timezone, "timezone", "", "Time zone")
	mapsCmd.AddCommand(createCmd)

	// list
	var listKind string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List maps in the mapset",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				SetQueryParam("kind", listKind).
				Get(fmt.Sprintf("/api/mapsets/%s/maps", mapsetFlag)))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listKind, "kind", "k", "raster", "Map kind to list")
	mapsCmd.AddCommand(listCmd)

	// get
	mapsCmd.AddCommand(&cobra.Command{
		Use:   "get MAP_ID",
		Short: "Get a map record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Get(fmt.Sprintf("/api/mapsets/%s/maps/%s", mapsetFlag, args[0])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	// datasets
	mapsCmd.AddCommand(&cobra.Command{
		Use:   "datasets MAP_ID",
		Short: "List datasets the map is registered in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Get(fmt.Sprintf("/api/mapsets/%s/maps/%s/datasets", mapsetFlag, args[0])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	// delete
	mapsCmd.AddCommand(&cobra.Command{
		Use:   "delete MAP_ID",
		Short: "Delete a map record (must be unregistered everywhere)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkResp(newClient().R().
				Delete(fmt.Sprintf("/api/mapsets/%s/maps/%s", mapsetFlag, args[0])))
			return err
		},
	})

	rootCmd.AddCommand(mapsCmd)
}
