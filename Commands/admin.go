package Commands

import (
	"fmt"

	"Chronos/FiberConfig"
	"Chronos/Identity"
	"Chronos/Models"

	"github.com/spf13/cobra"
)

var adminInput Identity.ProvisionInput

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a verified administrator account",
	Example: `  chronos create-admin --email root@example.com --password s3cret --first Root`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := Models.Connect(cfg.Database)
		if err != nil {
			return err
		}
		deps := FiberConfig.NewDependencies(cfg, db, nil, nil)

		admin, err := deps.Directory.CreateAdmin(cmd.Context(), adminInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (%s)\n", admin.Email, admin.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminInput.Email, "email", "", "administrator email")
	createAdminCmd.Flags().StringVar(&adminInput.Password, "password", "", "administrator password")
	createAdminCmd.Flags().StringVar(&adminInput.FirstName, "first", "Admin", "first name")
	createAdminCmd.Flags().StringVar(&adminInput.LastName, "last", "", "last name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
