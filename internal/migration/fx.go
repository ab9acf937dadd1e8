package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
	"github.com/smallbiznis/affinity/internal/config"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&catalogdomain.Category{},
				&catalogdomain.Product{},
				&catalogdomain.Order{},
				&catalogdomain.OrderItem{},
				&associationdomain.ProductAssociation{},
				&associationdomain.AssociationRun{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
