package migrate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/cmd/cmdutil"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/config"
	dbmigrate "github.com/mpapenbr/f1telemetry-service-go/pkg/db/migrate"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils"
)

var versionOnly bool

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}
	cmd.Flags().BoolVar(&versionOnly,
		"version",
		false,
		"only print the currently applied schema version")
	return cmd
}

func startMigration() error {
	if _, _, err := cmdutil.SetupLogger(); err != nil {
		return err
	}
	if err := cmdutil.WaitForRequiredServices(utils.ExtractFromDBURL(config.DB)); err != nil {
		log.Error("database not ready", log.ErrorField(err))
		return err
	}
	dbURL := prepareURLForDB(config.DB)

	if !versionOnly {
		if err := dbmigrate.MigrateDb(dbURL); err != nil {
			log.Error("migration failed", log.ErrorField(err))
			return err
		}
	}
	version, dirty, err := dbmigrate.Version(dbURL)
	if err != nil {
		return err
	}
	log.Info("schema version", log.Uint64("version", uint64(version)), log.Bool("dirty", dirty))
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
