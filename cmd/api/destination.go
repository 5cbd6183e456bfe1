package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/postgres"
)

var (
	destinationOwner string
	destinationName  string
)

var destinationCmd = &cobra.Command{
	Use:   "destination",
	Short: "Manage destinations",
}

var destinationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a destination for a user and print its id",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := postgres.NewPool(cmd.Context(), cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		dest, err := postgres.NewRepository(pool).AddDestination(cmd.Context(), destinationOwner, destinationName)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), dest.ID)
		return err
	},
}

func init() {
	destinationCreateCmd.Flags().StringVar(&destinationOwner, "owner", "", "owning user id")
	destinationCreateCmd.Flags().StringVar(&destinationName, "name", "", "destination name")
	_ = destinationCreateCmd.MarkFlagRequired("owner")
	_ = destinationCreateCmd.MarkFlagRequired("name")
	destinationCmd.AddCommand(destinationCreateCmd)
}
