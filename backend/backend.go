// Package backend is the REST surface. It is a thin adapter: handlers
// bind JSON, call one orchestrator operation and map the error onto a
// status code. All business rules live in the usecase package.
package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mssentry/mssentry/audit"
	"github.com/mssentry/mssentry/usecase"
)

const actorHeader = "X-Actor"

type API struct {
	Logins      *usecase.LoginService
	Users       *usecase.UserService
	Roles       *usecase.RoleService
	Memberships *usecase.MembershipService
	Permissions *usecase.PermissionService
	Audit       audit.Log
	Logger      log.Logger
}

func NewAPI(d *usecase.Deps) *API {
	return &API{
		Logins:      usecase.Logins(d),
		Users:       usecase.Users(d),
		Roles:       usecase.Roles(d),
		Memberships: usecase.Memberships(d),
		Permissions: usecase.Permissions(d),
		Audit:       d.Audit,
		Logger:      d.Logger.Named("backend"),
	}
}

func (a *API) Router(registry *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requireActor())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")

	v1.GET("/logins", a.listLogins)
	v1.POST("/logins", a.createLogin)
	v1.GET("/logins/:name", a.getLogin)
	v1.PATCH("/logins/:name", a.updateLogin)
	v1.DELETE("/logins/:name", a.deleteLogin)

	v1.GET("/databases/:database/users", a.listUsers)
	v1.POST("/databases/:database/users", a.createUser)
	v1.GET("/databases/:database/users/:name", a.getUser)
	v1.PATCH("/databases/:database/users/:name", a.updateUser)
	v1.DELETE("/databases/:database/users/:name", a.deleteUser)

	v1.GET("/roles", a.listRoles)
	v1.POST("/roles", a.createRole)
	v1.GET("/roles/:name", a.getRole)
	v1.DELETE("/roles/:name", a.deleteRole)

	v1.GET("/roles/:name/members", a.listMembers)
	v1.POST("/roles/:name/members", a.assignMember)
	v1.DELETE("/roles/:name/members/:principal", a.removeMember)
	v1.GET("/principals/:name/memberships", a.listMemberships)

	v1.POST("/grants", a.grantPermission)
	v1.DELETE("/grants", a.revokePermission)
	v1.GET("/grants", a.listGrants)

	v1.GET("/operations", a.listOperations)
	v1.GET("/operations/:id", a.getOperation)

	return router
}

// requireActor rejects mutating requests without an X-Actor header;
// the audit trail is useless without an attributable actor.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if c.GetHeader(actorHeader) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				errorBody{Error: "missing " + actorHeader + " header"})
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) string {
	return c.GetHeader(actorHeader)
}
