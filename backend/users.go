package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mssentry/mssentry/usecase"
)

type createUserBody struct {
	Name      string `json:"name" binding:"required"`
	LoginName string `json:"login_name"`
}

func (a *API) createUser(c *gin.Context) {
	var body createUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	user, err := a.Users.Create(c.Request.Context(), actor(c), usecase.CreateUserRequest{
		Name:      body.Name,
		Database:  c.Param("database"),
		LoginName: body.LoginName,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type updateUserBody struct {
	DefaultSchema *string `json:"default_schema"`
}

func (a *API) updateUser(c *gin.Context) {
	var body updateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	user, err := a.Users.Update(c.Request.Context(), actor(c), c.Param("database"), c.Param("name"),
		usecase.UpdateUserRequest{DefaultSchema: body.DefaultSchema})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *API) deleteUser(c *gin.Context) {
	if err := a.Users.Delete(c.Request.Context(), actor(c), c.Param("database"), c.Param("name")); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) getUser(c *gin.Context) {
	user, err := a.Users.Get(c.Request.Context(), c.Param("database"), c.Param("name"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *API) listUsers(c *gin.Context) {
	users, err := a.Users.List(c.Request.Context(), c.Param("database"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
