package main

import (
	"encoding/json"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check every event's seat count against its registrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			live, err := a.events.Audit(cmd.Context())
			if err != nil {
				return err
			}
			mismatches := append([]admission.Mismatch{}, a.hydrated...)
			mismatches = append(mismatches, live...)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(mismatches)
			}
			if len(mismatches) == 0 {
				fmt.Fprintln(out, "all events consistent")
				return nil
			}
			for _, m := range mismatches {
				fmt.Fprintf(out, "%s: total=%d ledger=%d registrations=%d",
					m.EventID, m.TotalSeats, m.LedgerActive, m.StoreActive)
				if m.StorageActive != nil {
					fmt.Fprintf(out, " stored=%d", *m.StorageActive)
				}
				fmt.Fprintln(out)
			}
			return fmt.Errorf("%d inconsistent events", len(mismatches))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print mismatches as JSON")
	return cmd
}
