package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"churchhub_backend/internals/configs"
	database "churchhub_backend/internals/databases"
	authService "churchhub_backend/internals/features/users/auth/service"
	branchSeeds "churchhub_backend/internals/seeds/branches"
)

var (
	seedEmail    string
	seedPassword string
	seedName     string
	seedFile     string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or reset a SUPER_ADMIN account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configs.LoadDatabase()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		_, flush := configs.InitLogger(configs.GetEnv("APP_ENV", "development"))
		defer flush()

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if seedEmail == "" {
			seedEmail = configs.GetEnv("ADMIN_EMAIL")
		}
		if seedPassword == "" {
			seedPassword = configs.GetEnv("ADMIN_PASSWORD")
		}
		svc := authService.NewAuthService(db, configs.JWTConfig{})
		user, created, err := svc.SeedAdmin(cmd.Context(), seedEmail, seedPassword, seedName)
		if err != nil {
			return err
		}
		action := "updated"
		if created {
			action = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s (%s)\n", user.Email, action, user.ID)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert branches and projects from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configs.LoadDatabase()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		_, flush := configs.InitLogger(configs.GetEnv("APP_ENV", "development"))
		defer flush()

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		res, err := branchSeeds.SeedBranchesFromJSON(cmd.Context(), db, seedFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d branches, %d projects\n", res.Branches, res.Projects)
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "Admin email (default $ADMIN_EMAIL)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "Admin password, min 8 characters (default $ADMIN_PASSWORD)")
	seedAdminCmd.Flags().StringVar(&seedName, "name", "Super Admin", "Admin display name")

	seedCmd.Flags().StringVar(&seedFile, "file", "internals/seeds/branches/data_branches.json", "Seed JSON file")
}
