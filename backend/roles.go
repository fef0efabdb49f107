package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/usecase"
)

// roleScope reads the scope and database of a role from the query
// string. Scope defaults to server; database-scope roles need the
// database parameter.
func roleScope(c *gin.Context) (model.RoleScope, string) {
	scope := model.RoleScope(c.Query("scope"))
	if scope == "" {
		scope = model.RoleScopeServer
	}
	return scope, c.Query("database")
}

type createRoleBody struct {
	Name     string   `json:"name" binding:"required"`
	Scope    string   `json:"scope"`
	Database string   `json:"database"`
	Owner    string   `json:"owner"`
	Members  []string `json:"members"`
}

func (a *API) createRole(c *gin.Context) {
	var body createRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	req := usecase.CreateRoleRequest{
		Name:     body.Name,
		Scope:    model.RoleScope(body.Scope),
		Database: body.Database,
		Owner:    body.Owner,
	}
	if req.Scope == "" {
		req.Scope = model.RoleScopeServer
	}

	var role *model.Role
	var err error
	if len(body.Members) > 0 {
		role, err = a.Roles.CreateWithMembers(c.Request.Context(), actor(c), req, body.Members)
	} else {
		role, err = a.Roles.Create(c.Request.Context(), actor(c), req)
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"role": role})
}

func (a *API) deleteRole(c *gin.Context) {
	scope, database := roleScope(c)
	force := c.Query("force") == "true"
	if err := a.Roles.DeleteWithForce(c.Request.Context(), actor(c), scope, database, c.Param("name"), force); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) getRole(c *gin.Context) {
	scope, database := roleScope(c)
	role, err := a.Roles.Get(c.Request.Context(), scope, database, c.Param("name"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (a *API) listRoles(c *gin.Context) {
	scope, database := roleScope(c)
	roles, err := a.Roles.List(c.Request.Context(), scope, database)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}
