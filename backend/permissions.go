package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/usecase"
)

type grantBody struct {
	Grantee     string `json:"grantee" binding:"required"`
	GranteeType string `json:"grantee_type" binding:"required"`
	Permission  string `json:"permission" binding:"required"`
	Database    string `json:"database"`
	ObjectName  string `json:"object_name"`
}

func (b grantBody) request() usecase.GrantRequest {
	return usecase.GrantRequest{
		Grantee:     b.Grantee,
		GranteeType: model.GranteeType(b.GranteeType),
		Permission:  b.Permission,
		Database:    b.Database,
		ObjectName:  b.ObjectName,
	}
}

func (a *API) grantPermission(c *gin.Context) {
	var body grantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	grant, err := a.Permissions.Grant(c.Request.Context(), actor(c), body.request())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"grant": grant})
}

func (a *API) revokePermission(c *gin.Context) {
	var body grantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	grant, err := a.Permissions.Revoke(c.Request.Context(), actor(c), body.request())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grant": grant})
}

// listGrants serves either the remote catalog view (default) or the
// locally tracked edges (source=tracked).
func (a *API) listGrants(c *gin.Context) {
	grantee := c.Query("grantee")
	if grantee == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "missing grantee parameter"})
		return
	}

	if c.Query("source") == "tracked" {
		grants, err := a.Permissions.ListTracked(grantee)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"grants": grants})
		return
	}

	rows, err := a.Permissions.ListGrants(c.Request.Context(), c.Query("database"), grantee)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": rows})
}
