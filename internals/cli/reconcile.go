package cli

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"churchhub_backend/internals/configs"
	database "churchhub_backend/internals/databases"
	donationService "churchhub_backend/internals/features/donations/donations/service"
	"churchhub_backend/internals/features/donations/gateway"
)

var (
	reconcileReference string
	reconcileForce     bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Verify a payment reference with the gateway and update its donations",
	Long: `reconcile runs the same verification as POST /api/payments/verify.

With --force a donation already marked SUCCESS may be moved to FAILED when the
gateway reports the payment as failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configs.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		_, flush := configs.InitLogger(cfg.App.Env)
		defer flush()

		db, err := openDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close(db)

		gw, err := gateway.New(cfg.Payment)
		if err != nil {
			return err
		}
		svc := donationService.NewDonationService(db, gw, cfg.Payment)

		res, err := svc.Verify(cmd.Context(), reconcileReference, reconcileForce)
		if err != nil {
			return err
		}
		out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileReference, "reference", "", "Donation reference (don_...)")
	reconcileCmd.Flags().BoolVar(&reconcileForce, "force", false, "Allow SUCCESS -> FAILED")
	_ = reconcileCmd.MarkFlagRequired("reference")
}
