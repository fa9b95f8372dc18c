package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	datasetsCmd := &cobra.Command{Use: "datasets", Short: "Space-time dataset operations"}

	// create
	var kind, temporalType, semanticType, title, description, granularity, timezone string
	createCmd := &cobra.Command{
		Use:   "create DATASET_ID",
		Short: "Create a space-time dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"id":           args[0],
				"kind":         kind,
				"temporalType": temporalType,
			}
			if semanticType != "" {
				payload["semanticType"] = semanticType
			}
			if title != "" {
				payload["title"] = title
			}
			if description != "" {
				payload["description"] = description
			}
			if granularity != "" {
				payload["granularity"] = granularity
			}
			if timezone != "" {
				payload["timeZone"] = timezone
			}
			data, err := checkResp(newClient().R().
				SetBody(payload).
				Post(fmt.Sprintf("/api/mapsets/%s/datasets", mapsetFlag)))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&kind, "kind", "k", "strds", "Dataset kind (strds, str3ds, stvds)")
	createCmd.Flags().StringVarP(&temporalType, "temporal-type", "t", "absolute", "Temporal type (absolute, relative)")
	createCmd.Flags().StringVar(&semanticType, "semantic-type", "", "Semantic type")
	createCmd.Flags().StringVar(&title, "title", "", "Title")
	createCmd.Flags().StringVar(&description, "description", "", "Description")
	createCmd.Flags().StringVar(&granularity, "granularity", "", "Granularity")
	createCmd.Flags().StringVar(&timezone, "timezone", "", "Time zone")
	datasetsCmd.AddCommand(createCmd)

	// list
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List datasets in the mapset",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Get(fmt.Sprintf("/api/mapsets/%s/datasets", mapsetFlag)))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	// get
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "get DATASET_ID",
		Short: "Get a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Get(fmt.Sprintf("/api/mapsets/%s/datasets/%s", mapsetFlag, args[0])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	// delete
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "delete DATASET_ID",
		Short: "Delete a dataset, unregistering all members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkResp(newClient().R().
				Delete(fmt.Sprintf("/api/mapsets/%s/datasets/%s", mapsetFlag, args[0])))
			return err
		},
	})

	// refresh
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "refresh DATASET_ID",
		Short: "Recompute temporal extent and classification from members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Post(fmt.Sprintf("/api/mapsets/%s/datasets/%s/refresh", mapsetFlag, args[0])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	// register / unregister
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "register DATASET_ID MAP_ID",
		Short: "Register a map in a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Put(fmt.Sprintf("/api/mapsets/%s/datasets/%s/maps/%s", mapsetFlag, args[0], args[1])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "unregister DATASET_ID MAP_ID",
		Short: "Unregister a map from a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Delete(fmt.Sprintf("/api/mapsets/%s/datasets/%s/maps/%s", mapsetFlag, args[0], args[1])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	// members
	var order string
	var limit int
	membersCmd := &cobra.Command{
		Use:   "members DATASET_ID",
		Short: "List registered maps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := newClient().R()
			if order != "" {
				req.SetQueryParam("order", order)
			}
			if limit > 0 {
				req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
			}
			data, err := checkResp(req.
				Get(fmt.Sprintf("/api/mapsets/%s/datasets/%s/maps", mapsetFlag, args[0])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
	membersCmd.Flags().StringVarP(&order, "order", "o", "", "Sort key (start, start_desc, end, end_desc)")
	membersCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of maps")
	datasetsCmd.AddCommand(membersCmd)

	// relations
	datasetsCmd.AddCommand(&cobra.Command{
		Use:   "relations DATASET_ID",
		Short: "Print the pairwise temporal relation matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkResp(newClient().R().
				Get(fmt.Sprintf("/api/mapsets/%s/datasets/%s/relations", mapsetFlag, args[0])))
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	})

	rootCmd.AddCommand(datasetsCmd)
}
