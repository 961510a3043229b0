package commands

import (
	"io"
	"strings"
	"time"

	"github.com/Alp4ka/gokeyset/config"
	"github.com/Alp4ka/gokeyset/fileshare"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const _slowQueryThreshold = 200 * time.Millisecond

func newLogger(c *config.Log, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	return l, nil
}

// openDatabase opens the configured database and returns a func that closes
// it. GORM logs through l.
func openDatabase(c *config.Database, l *logrus.Logger) (*gorm.DB, func() error, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	case "mysql":
		dialector = mysql.Open(c.DSN)
	case "sqlite":
		dialector = sqlite.Open(c.DSN)
	default:
		return nil, nil, errors.Errorf("unsupported database driver %q", c.Driver)
	}

	logLevel := logger.Warn
	if l.IsLevelEnabled(logrus.DebugLevel) {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(l, logger.Config{
			SlowThreshold:             _slowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot open %s database", c.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot access database pool")
	}

	if c.Driver == "sqlite" {
		// SQLite serialises writers, and every :memory: connection is a
		// separate database.
		sqlDB.SetMaxOpenConns(1)

		if strings.Contains(c.DSN, ":memory:") {
			if err = fileshare.Migrate(db); err != nil {
				_ = sqlDB.Close()
				return nil, nil, errors.Wrap(err, "cannot migrate in-memory database")
			}
		}
	}

	l.WithField("driver", c.Driver).Debug("database opened")

	return db, sqlDB.Close, nil
}
