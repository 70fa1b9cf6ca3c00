package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WillCodeCo/solver-util/ipc"
)

func newIPCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipc",
		Short: "Inspect the IPC frame store capability this host selects",
	}
	cmd.AddCommand(newIPCProbeCmd())
	return cmd
}

func newIPCProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report whether shared-memory frames are available and exercise a create/load/destroy round trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			shmOK := ipc.SharedMemoryStoreIsSupported()
			fileOK := ipc.FileStoreIsSupported()
			fmt.Fprintf(out, "shared-memory store supported: %v\n", shmOK)
			fmt.Fprintf(out, "file-backed store supported:   %v\n", fileOK)

			store := ipc.NewStore()
			kind := "file-backed"
			if shmOK {
				kind = "shared-memory"
			}
			fmt.Fprintf(out, "selected store kind: %s\n", kind)

			frame, err := store.CreateEmpty(64)
			if err != nil {
				return fmt.Errorf("probing create_empty: %w", err)
			}
			for i := range frame.Buf {
				frame.Buf[i] = byte(i)
			}
			if err := store.Save(frame); err != nil {
				return fmt.Errorf("probing save: %w", err)
			}
			loaded, err := store.Load(frame.ID)
			if err != nil {
				return fmt.Errorf("probing load: %w", err)
			}
			fmt.Fprintf(out, "round trip ok: frame %q, %d bytes\n", loaded.ID, loaded.Size())

			return store.DestroyAll()
		},
	}
}
