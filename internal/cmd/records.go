package cmd

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/gravitrone/repack/cli/internal/forms"
	"github.com/gravitrone/repack/cli/internal/records"
)

// RecordsCmd returns the `repack records` command group.
func RecordsCmd() *cobra.Command {
	var room int
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List and operate on room recordings",
	}
	cmd.PersistentFlags().IntVarP(&room, "room", "r", 0, "room id (defaults to the configured room)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the recordings of a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			roomID, err := resolveRoom(room, s)
			if err != nil {
				return err
			}
			con := newConsole(cmd.OutOrStdout())
			vm := records.NewViewModel(con)
			con.vm = vm
			return loadRoom(cmd.Context(), s, vm, roomID)
		},
	})

	for _, op := range []struct {
		name  string
		short string
		build func(*records.ViewModel, forms.Submitter, forms.View, ...forms.Option) *forms.RecordsController
	}{
		{"process", "Queue recordings for processing", forms.NewProcessController},
		{"terminate", "Terminate recordings and mark them completed", forms.NewTerminateController},
		{"upload", "Queue recordings for upload", forms.NewUploadController},
	} {
		op := op
		cmd.AddCommand(&cobra.Command{
			Use:   op.name + " <recording-id>...",
			Short: op.short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids := records.IDs(args...)
				if err := records.ValidateIDs(ids); err != nil {
					return err
				}
				s, err := openSession()
				if err != nil {
					return err
				}
				defer s.Close()

				con := newConsole(cmd.OutOrStdout())
				vm := records.NewViewModel(nil)
				con.vm = vm

				roomID := room
				if roomID == 0 {
					roomID = s.cfg.RoomID
				}
				if roomID > 0 {
					if err := loadRoom(cmd.Context(), s, vm, roomID); err != nil {
						return err
					}
				} else {
					vm.Replace(placeholders(ids))
				}
				if n := vm.Select(ids...); n != len(ids) {
					return errors.Errorf("%d of %d recordings are not in room %d", len(ids)-n, len(ids), roomID)
				}
				vm.SetRenderer(con)

				ctrl := op.build(vm, s.client, con.view(), forms.WithLogger(s.logger))
				return outcomeError(op.name, ctrl.Submit(cmd.Context()))
			},
		})
	}
	return cmd
}

func resolveRoom(flag int, s *session) (int, error) {
	if flag > 0 {
		return flag, nil
	}
	if s.cfg.RoomID > 0 {
		return s.cfg.RoomID, nil
	}
	return 0, errors.New("no room given: pass --room or run `repack rooms use <id>`")
}

func loadRoom(ctx context.Context, s *session, vm *records.ViewModel, roomID int) error {
	list, err := s.client.ListRecords(ctx, roomID)
	if err != nil {
		return errors.Wrapf(err, "list records of room %d", roomID)
	}
	vm.Replace(list)
	return nil
}

// placeholders stands in for a room listing when only ids are known.
func placeholders(ids []records.ID) []records.Record {
	out := make([]records.Record, len(ids))
	for i, id := range ids {
		out[i] = records.Record{ID: id}
	}
	return out
}

func outcomeError(form string, outcome forms.Outcome) error {
	if outcome.OK() {
		return nil
	}
	return errors.Errorf("%s %s", form, outcome)
}
