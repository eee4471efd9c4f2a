/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/db"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/services"
	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/store"
)

var createAdminFlags services.RegisterAdminRequest

// createAdminCmd represents the createadmin command. The API exposes no
// admin registration, so the first administrator is provisioned here.
var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Provision an administrator account",
	Long: `Provision an administrator account. Usage:

	bitsxLaMarato-backend-2025 createadmin --email admin@example.com --name Anna --surname Puig --password 'S3cret!pw'
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		userService := services.NewUserService(
			store.NewUserRepository(dbConn),
			store.NewPatientRepository(dbConn),
			store.NewDoctorRepository(dbConn),
			store.NewAdminRepository(dbConn),
			store.NewScoreRepository(dbConn),
			store.NewAnswerRepository(dbConn),
		)

		if err := userService.RegisterAdmin(cmd.Context(), createAdminFlags); err != nil {
			return err
		}

		fmt.Printf("admin %s created\n", createAdminFlags.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&createAdminFlags.Email, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&createAdminFlags.Name, "name", "", "admin given name")
	createAdminCmd.Flags().StringVar(&createAdminFlags.Surname, "surname", "", "admin family name")
	createAdminCmd.Flags().StringVar(&createAdminFlags.Password, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("surname")
	_ = createAdminCmd.MarkFlagRequired("password")
}
