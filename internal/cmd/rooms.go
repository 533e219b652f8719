package cmd

import (
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/gravitrone/repack/cli/internal/ui/components"
)

// RoomsCmd returns the `repack rooms` command group.
func RoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms and pick the default one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			rooms, err := s.client.ListRooms(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "list rooms")
			}
			out := cmd.OutOrStdout()
			if len(rooms) == 0 {
				fmt.Fprintln(out, "no rooms found")
				return nil
			}
			rows := make([][]string, len(rooms))
			for i, r := range rooms {
				mark := "[ ]"
				if r.ID == s.cfg.RoomID {
					mark = "[X]"
				}
				rows[i] = []string{mark, strconv.Itoa(r.ID), r.Name}
			}
			fmt.Fprintln(out, components.TableGrid([]components.TableColumn{
				{Header: "", Width: 3},
				{Header: "ID", Width: 6},
				{Header: "Name", Width: 40},
			}, rows, 60))
			return nil
		},
	}
	cmd.AddCommand(roomsUseCmd())
	return cmd
}

func roomsUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <room-id>",
		Short: "Set the default room for records commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return errors.Errorf("invalid room id %q", args[0])
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			rooms, err := s.client.ListRooms(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "list rooms")
			}
			for _, r := range rooms {
				if r.ID == id {
					s.cfg.RoomID = id
					if err := s.cfg.Save(); err != nil {
						return errors.Wrap(err, "save config")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "default room: %s\n", r.Name)
					return nil
				}
			}
			return errors.Errorf("room %d not found", id)
		},
	}
}
