package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/usecase"
)

type createLoginBody struct {
	Name            string `json:"name" binding:"required"`
	Kind            string `json:"kind"`
	Password        string `json:"password"`
	DefaultDatabase string `json:"default_database"`
}

type loginResponse struct {
	Login *model.Login `json:"login"`
	// generated_password is returned exactly once, on creation with a
	// server-generated password.
	GeneratedPassword string `json:"generated_password,omitempty"`
}

func (a *API) createLogin(c *gin.Context) {
	var body createLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	kind := model.PrincipalKind(body.Kind)
	if body.Kind == "" {
		kind = model.KindSQL
	}

	res, err := a.Logins.Create(c.Request.Context(), actor(c), usecase.CreateLoginRequest{
		Name:            body.Name,
		Kind:            kind,
		Password:        body.Password,
		DefaultDatabase: body.DefaultDatabase,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, loginResponse{
		Login:             res.Login,
		GeneratedPassword: res.GeneratedPassword,
	})
}

type updateLoginBody struct {
	Password        *string `json:"password"`
	Enabled         *bool   `json:"enabled"`
	DefaultDatabase *string `json:"default_database"`
}

func (a *API) updateLogin(c *gin.Context) {
	var body updateLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	login, err := a.Logins.Update(c.Request.Context(), actor(c), c.Param("name"), usecase.UpdateLoginRequest{
		Password:        body.Password,
		Enabled:         body.Enabled,
		DefaultDatabase: body.DefaultDatabase,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Login: login})
}

func (a *API) deleteLogin(c *gin.Context) {
	cascade := c.Query("cascade") == "true"
	if err := a.Logins.Delete(c.Request.Context(), actor(c), c.Param("name"), cascade); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) getLogin(c *gin.Context) {
	login, err := a.Logins.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Login: login})
}

func (a *API) listLogins(c *gin.Context) {
	logins, err := a.Logins.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logins": logins})
}
