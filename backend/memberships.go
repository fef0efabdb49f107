package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type assignMemberBody struct {
	Principal string `json:"principal" binding:"required"`
}

func (a *API) assignMember(c *gin.Context) {
	var body assignMemberBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	scope, database := roleScope(c)
	m, err := a.Memberships.Assign(c.Request.Context(), actor(c), scope, database, c.Param("name"), body.Principal)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"membership": m})
}

func (a *API) removeMember(c *gin.Context) {
	scope, database := roleScope(c)
	m, err := a.Memberships.Remove(c.Request.Context(), actor(c), scope, database,
		c.Param("name"), c.Param("principal"), c.Query("reason"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}

func (a *API) listMembers(c *gin.Context) {
	scope, database := roleScope(c)
	members, err := a.Memberships.ListMembers(c.Request.Context(), scope, database, c.Param("name"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (a *API) listMemberships(c *gin.Context) {
	memberships, err := a.Memberships.ListForPrincipal(c.Param("name"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}
