package system

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dok75/clinic_backend/config"
	"github.com/dok75/clinic_backend/internal/model"
	"github.com/dok75/clinic_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize all databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			fmt.Println("Initializing databases...")
			err = database.InitializeDatabases(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Println("Databases Initialized successfully.")

			if repair {
				if err := repairDoctorClinics(cfg); err != nil {
					return fmt.Errorf("failed to repair doctor records: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Assign clinic-less doctors to the configured clinic (single-clinic mode)")

	return cmd
}

// repairDoctorClinics fixes doctor rows that lost their clinic assignment.
// In single-clinic mode they are reattached to the configured clinic; in
// multi-clinic mode they are only reported, since the right clinic is unknown.
func repairDoctorClinics(cfg *config.Config) error {
	db, err := database.NewGormDB(database.FromCentralConfig(cfg.Database))
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	var orphans []model.User
	if err := db.Where("role = ? AND clinic_id IS NULL", model.RoleDoctor).Find(&orphans).Error; err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Println("No clinic-less doctors found.")
		return nil
	}

	if cfg.Scope.Mode != "single" {
		for _, u := range orphans {
			fmt.Printf("Doctor %d (%s) has no clinic; reassign manually.\n", u.ID, u.Username)
		}
		return nil
	}

	clinicID := cfg.Scope.ClinicID
	if err := db.Model(&model.User{}).
		Where("role = ? AND clinic_id IS NULL", model.RoleDoctor).
		Update("clinic_id", clinicID).Error; err != nil {
		return err
	}
	fmt.Printf("Reattached %d doctor(s) to clinic %d.\n", len(orphans), clinicID)
	return nil
}
