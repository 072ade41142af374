package router

import (
	"github.com/campuskit/users-service/internal/application"
	"github.com/campuskit/users-service/internal/container"
	"github.com/campuskit/users-service/internal/infrastructure/postgres"
	handlers "github.com/campuskit/users-service/internal/interface/http"
	"github.com/campuskit/users-service/internal/router/modules"
)

func buildUserModule() *modules.UserModule {
	repo := postgres.NewUserRepository(container.GetPGPool())

	svc := application.NewService(
		repo,
		container.GetLogger(),
		container.GetES(),
		container.GetConfig().ESUsersIndex,
		container.GetEvents(),
	)

	handler := handlers.NewUserHandler(svc, container.GetLogger())
	return modules.NewUserModule(handler)
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	r.Add(buildUserModule())
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
