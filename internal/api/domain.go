package api

import "github.com/JaimeStill/intake/internal/files"

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Files files.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	filesSystem := files.New(
		newStore(runtime),
		runtime.Storage,
		files.NewBusNotifier(runtime.Bus, runtime.Topic),
		runtime.Pool,
		files.NewMetrics(runtime.Metrics),
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Files: filesSystem,
	}
}

func newStore(runtime *Runtime) files.Store {
	if runtime.Database != nil {
		runtime.Database.Require(files.PostgresTables...)
		return files.NewPostgresStore(runtime.Database.Connection())
	}

	db := runtime.Mongo.Database()
	lc := runtime.Lifecycle
	lc.OnStartup(func() {
		if err := files.EnsureMongoIndexes(lc.Context(), db); err != nil {
			runtime.Logger.Error("mongodb index setup failed", "error", err)
		}
	})
	return files.NewMongoStore(db)
}

